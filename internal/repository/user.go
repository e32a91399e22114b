package repository

import (
	"context"
	"errors"
	"fmt"

	"docfeed/internal/models"
	"docfeed/internal/observability"

	"gorm.io/gorm"
)

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users", nil)}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackStoreOperation(KindGorm, "user_create")()

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError(fmt.Sprintf("username %q is already taken", user.Username))
		}
		r.log.LogError(ctx, err, "create")
		return fmt.Errorf("create user: %w", err)
	}
	r.log.LogCreate(ctx, map[string]any{"id": user.ID, "username": user.Username})
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	defer observability.TrackStoreOperation(KindGorm, "user_get")()

	var user models.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}
