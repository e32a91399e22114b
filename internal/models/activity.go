package models

import "time"

// Activity actions recorded in the sidebar log.
const (
	ActionUserRegistered = "user.registered"
	ActionPostCreated    = "post.created"
	ActionPostLiked      = "post.liked"
	ActionPostUnliked    = "post.unliked"
	ActionCommentCreated = "comment.created"
)

// Activity is a human-readable entry in the activity log.
type Activity struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Action    string    `gorm:"size:32;not null" json:"action"`
	PostID    *uint     `gorm:"index" json:"postId,omitempty"`
	Summary   string    `gorm:"size:500;not null" json:"summary"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}
