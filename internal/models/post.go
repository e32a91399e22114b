package models

import "time"

// Post is a shared document entry. Likes and Comments are denormalized counters
// kept in lockstep with the post_likes and comments tables.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:300;not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	FileName    *string   `gorm:"size:255" json:"fileName,omitempty"`
	UserID      uint      `gorm:"not null;index" json:"userId"`
	User        *User     `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT" json:"-"`
	Likes       int       `gorm:"not null;default:0;check:likes >= 0" json:"likes"`
	Comments    int       `gorm:"not null;default:0;check:comments >= 0" json:"comments"`
	CreatedAt   time.Time `gorm:"not null;index" json:"createdAt"`
}

// PostLike records that a user liked a post. The composite primary key
// guarantees at most one like per (post, user).
type PostLike struct {
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" json:"postId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`

	Post *Post `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the database table name for PostLike.
func (PostLike) TableName() string {
	return "post_likes"
}

// LikeResult is returned by the like toggle.
type LikeResult struct {
	Post     *Post `json:"post"`
	HasLiked bool  `json:"hasLiked"`
}
