package repository

import (
	"context"

	"gorm.io/gorm"
)

// NewGormStore returns a Store backed by a gorm database (postgres or sqlite).
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:      NewUserRepository(db),
		Posts:      NewPostRepository(db),
		Comments:   NewCommentRepository(db),
		Activities: NewActivityRepository(db),
		kind:       KindGorm,
		ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
}
