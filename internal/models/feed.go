package models

// FeedItem is the read model for a post in the feed: the post itself, its
// author, a relative timestamp and whether the viewer liked it.
type FeedItem struct {
	Post
	Author   *User  `json:"author"`
	TimeAgo  string `json:"timeAgo"`
	HasLiked bool   `json:"hasLiked"`
}

// CommentView is a comment annotated with its author and relative timestamp.
type CommentView struct {
	Comment
	Author  *User  `json:"author"`
	TimeAgo string `json:"timeAgo"`
}
