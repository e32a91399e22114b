package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts", nil)}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackStoreOperation(KindGorm, "post_create")()

	post.ID = 0
	post.Likes = 0
	post.Comments = 0
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.User{}, "User", post.UserID); err != nil {
			return err
		}
		return tx.Create(post).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create")
		return wrapUnlessApp(err, "create post")
	}
	r.log.LogCreate(ctx, map[string]any{"id": post.ID, "user_id": post.UserID})
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackStoreOperation(KindGorm, "post_get")()

	var post models.Post
	err := r.db.WithContext(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context) ([]*models.Post, error) {
	defer observability.TrackStoreOperation(KindGorm, "post_list")()

	var posts []*models.Post
	if err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&posts).Error; err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) IsLiked(ctx context.Context, postID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return count > 0, nil
}

func (r *postRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, error) {
	liked := make(map[uint]bool)
	if userID == 0 || len(postIDs) == 0 {
		return liked, nil
	}

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("liked post ids: %w", err)
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

// ToggleLike flips the (post, user) like inside one transaction. Membership is
// decided by the delete/insert outcome itself, so a concurrent toggle that commits
// between the two statements is observed on the retry instead of being overwritten.
func (r *postRepository) ToggleLike(ctx context.Context, postID, userID uint) (*models.Post, bool, error) {
	defer observability.TrackStoreOperation(KindGorm, "toggle_like")()

	var (
		post  models.Post
		liked bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireExists(tx, &models.Post{}, "Post", postID); err != nil {
			return err
		}
		if err := requireExists(tx, &models.User{}, "User", userID); err != nil {
			return err
		}

		var err error
		liked, err = toggleLikeRow(tx, postID, userID)
		if err != nil {
			return err
		}
		return tx.First(&post, postID).Error
	})
	if err != nil {
		if !models.IsNotFound(err) {
			r.log.LogError(ctx, err, "toggle_like")
		}
		return nil, false, wrapUnlessApp(err, "toggle like")
	}

	r.log.LogUpdate(ctx, map[string]any{"id": postID, "user_id": userID, "liked": liked, "likes": post.Likes})
	return &post, liked, nil
}

func toggleLikeRow(tx *gorm.DB, postID, userID uint) (bool, error) {
	for attempt := 1; attempt <= maxToggleAttempts; attempt++ {
		del := tx.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{})
		if del.Error != nil {
			return false, del.Error
		}
		if del.RowsAffected > 0 {
			err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes", gorm.Expr("CASE WHEN likes > 0 THEN likes - 1 ELSE 0 END")).Error
			return false, err
		}

		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostLike{PostID: postID, UserID: userID, CreatedAt: time.Now()})
		if ins.Error != nil {
			return false, ins.Error
		}
		if ins.RowsAffected > 0 {
			err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes", gorm.Expr("likes + ?", 1)).Error
			return true, err
		}

		observability.LikeToggleRetries.Inc()
	}
	return false, fmt.Errorf("like on post %d kept changing concurrently after %d attempts", postID, maxToggleAttempts)
}

// requireExists returns a NotFound AppError when no row of model has the given id.
func requireExists(tx *gorm.DB, model any, resource string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return models.NewNotFoundError(resource, id)
	}
	return nil
}

func wrapUnlessApp(err error, op string) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
