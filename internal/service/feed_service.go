package service

import (
	"context"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/observability"
	"docfeed/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// FeedService assembles the read models served to clients.
type FeedService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
	authors  *AuthorResolver

	// Now is the clock used for relative timestamps.
	Now func() time.Time
}

func NewFeedService(
	posts repository.PostRepository,
	comments repository.CommentRepository,
	authors *AuthorResolver,
) *FeedService {
	return &FeedService{posts: posts, comments: comments, authors: authors, Now: time.Now}
}

// ListFeed returns every post newest first. viewerID 0 means anonymous, in which
// case HasLiked is always false.
func (s *FeedService) ListFeed(ctx context.Context, viewerID uint) ([]*models.FeedItem, error) {
	span, ctx := observability.NewSpan(ctx, "feed.list", attribute.Int64("viewer_id", int64(viewerID)))
	defer span.End()

	posts, err := s.posts.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	ids := make([]uint, 0, len(posts))
	authorIDs := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
		authorIDs = append(authorIDs, p.UserID)
	}

	authors, err := s.authors.resolveMany(ctx, authorIDs)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	liked := map[uint]bool{}
	if viewerID != 0 {
		liked, err = s.posts.LikedPostIDs(ctx, viewerID, ids)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
	}

	now := s.Now()
	items := make([]*models.FeedItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, &models.FeedItem{
			Post:     *p,
			Author:   authors[p.UserID],
			TimeAgo:  TimeAgo(p.CreatedAt, now),
			HasLiked: liked[p.ID],
		})
	}
	span.AddAttributes(attribute.Int("feed.size", len(items)))
	return items, nil
}

// GetPost returns one post as a feed item.
func (s *FeedService) GetPost(ctx context.Context, id, viewerID uint) (*models.FeedItem, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	author, err := s.authors.Resolve(ctx, post.UserID)
	if err != nil {
		return nil, err
	}

	hasLiked := false
	if viewerID != 0 {
		if hasLiked, err = s.posts.IsLiked(ctx, id, viewerID); err != nil {
			return nil, err
		}
	}

	return &models.FeedItem{
		Post:     *post,
		Author:   author,
		TimeAgo:  TimeAgo(post.CreatedAt, s.Now()),
		HasLiked: hasLiked,
	}, nil
}

// ListComments returns the comments of a post newest first.
func (s *FeedService) ListComments(ctx context.Context, postID uint) ([]*models.CommentView, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundError("Post", postID)
	}

	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	authorIDs := make([]uint, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.UserID)
	}
	authors, err := s.authors.resolveMany(ctx, authorIDs)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	views := make([]*models.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, &models.CommentView{
			Comment: *c,
			Author:  authors[c.UserID],
			TimeAgo: TimeAgo(c.CreatedAt, now),
		})
	}
	return views, nil
}
