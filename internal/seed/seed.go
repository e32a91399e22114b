package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docfeed/internal/middleware"
	"docfeed/internal/models"
	"docfeed/internal/repository"
)

// Options configures a generated seed run.
type Options struct {
	NumUsers           int
	NumPosts           int
	MaxLikesPerPost    int
	MaxCommentsPerPost int
	MaxDays            int
	Seed               int64
}

// DefaultOptions is a small demo data set.
var DefaultOptions = Options{
	NumUsers:           8,
	NumPosts:           20,
	MaxLikesPerPost:    6,
	MaxCommentsPerPost: 4,
	MaxDays:            30,
}

// Summary counts what a seed run created.
type Summary struct {
	Users    int
	Posts    int
	Likes    int
	Comments int
}

// Seed fills store with generated users, posts, likes and comments.
func Seed(ctx context.Context, store *repository.Store, opts Options) (*Summary, error) {
	if store == nil {
		return nil, errors.New("seed: nil store")
	}
	if opts.NumUsers <= 0 {
		return nil, errors.New("seed: at least one user is required")
	}

	f := NewFactory(store, opts.Seed, opts.MaxDays)
	summary := &Summary{}

	users := make([]*models.User, 0, opts.NumUsers)
	for range opts.NumUsers {
		u, err := f.CreateUser(ctx)
		if err != nil {
			return summary, err
		}
		users = append(users, u)
		summary.Users++
	}

	for range opts.NumPosts {
		owner := users[f.faker.Number(0, len(users)-1)]
		post, err := f.CreatePost(ctx, owner)
		if err != nil {
			return summary, err
		}
		summary.Posts++

		for _, liker := range f.pick(users, opts.MaxLikesPerPost) {
			if err := f.Like(ctx, liker, post); err != nil {
				return summary, err
			}
			summary.Likes++
		}

		comments := 0
		if opts.MaxCommentsPerPost > 0 {
			comments = f.faker.Number(0, opts.MaxCommentsPerPost)
		}
		for range comments {
			author := users[f.faker.Number(0, len(users)-1)]
			if _, err := f.CreateComment(ctx, author, post); err != nil {
				return summary, err
			}
			summary.Comments++
		}
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("likes", summary.Likes),
		slog.Int("comments", summary.Comments),
	)
	return summary, nil
}

// pick returns up to max distinct users in random order.
func (f *Factory) pick(users []*models.User, max int) []*models.User {
	if max <= 0 {
		return nil
	}
	n := f.faker.Number(0, min(max, len(users)))
	shuffled := make([]*models.User, len(users))
	copy(shuffled, users)
	f.faker.ShuffleAnySlice(shuffled)
	return shuffled[:n]
}

// IsEmpty reports whether store has no posts yet.
func IsEmpty(ctx context.Context, store *repository.Store) (bool, error) {
	posts, err := store.Posts.List(ctx)
	if err != nil {
		return false, fmt.Errorf("list posts: %w", err)
	}
	return len(posts) == 0, nil
}
