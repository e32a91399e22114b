package service

import (
	"context"
	"errors"
	"fmt"

	"docfeed/internal/cache"
	"docfeed/internal/models"
	"docfeed/internal/repository"

	"github.com/redis/go-redis/v9"
)

var errAuthorMissing = errors.New("author missing")

// AuthorResolver looks up post and comment authors through a Redis read-through
// cache. Users are immutable, so cached entries only expire by TTL.
type AuthorResolver struct {
	users repository.UserRepository
	rdb   *redis.Client
}

// NewAuthorResolver creates a resolver; rdb may be nil to bypass the cache.
func NewAuthorResolver(users repository.UserRepository, rdb *redis.Client) *AuthorResolver {
	return &AuthorResolver{users: users, rdb: rdb}
}

// Resolve returns the user with the given id. A missing user is an integrity
// violation because every post and comment references an existing author.
func (r *AuthorResolver) Resolve(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := cache.Aside(ctx, r.rdb, cache.UserKey(id), &user, cache.UserTTL, func() error {
		u, err := r.users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if u == nil {
			return errAuthorMissing
		}
		user = *u
		return nil
	})
	if errors.Is(err, errAuthorMissing) {
		return nil, models.NewIntegrityError(fmt.Sprintf("author %d does not exist", id))
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// resolveMany resolves each distinct id once.
func (r *AuthorResolver) resolveMany(ctx context.Context, ids []uint) (map[uint]*models.User, error) {
	out := make(map[uint]*models.User, len(ids))
	for _, id := range ids {
		if _, ok := out[id]; ok {
			continue
		}
		u, err := r.Resolve(ctx, id)
		if err != nil {
			return nil, err
		}
		out[id] = u
	}
	return out, nil
}
