package repository

import (
	"context"
	"fmt"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/observability"

	"gorm.io/gorm"
)

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments", nil)}
}

// Create inserts the comment and bumps the post's comment counter in one transaction.
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	defer observability.TrackStoreOperation(KindGorm, "comment_create")()

	comment.ID = 0
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Post{}, "Post", comment.PostID); err != nil {
			return err
		}
		if err := requireExists(tx, &models.User{}, "User", comment.UserID); err != nil {
			return err
		}
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments", gorm.Expr("comments + ?", 1)).Error
	})
	if err != nil {
		if !models.IsNotFound(err) {
			r.log.LogError(ctx, err, "create")
		}
		return wrapUnlessApp(err, "create comment")
	}

	r.log.LogCreate(ctx, map[string]any{"id": comment.ID, "post_id": comment.PostID, "user_id": comment.UserID})
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	defer observability.TrackStoreOperation(KindGorm, "comment_list")()

	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").Order("id DESC").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
