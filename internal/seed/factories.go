// Package seed provides helpers to create demo data for development and
// testing. Everything is written through the repository Store so the post
// counters stay consistent with the like and comment rows.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPassword is the plaintext password given to every generated user.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them through a Store.
type Factory struct {
	store   *repository.Store
	faker   *gofakeit.Faker
	maxDays int
	now     func() time.Time

	passwordHash string
}

// NewFactory creates a Factory. A zero seed picks a random one.
func NewFactory(store *repository.Store, seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 30
	}
	return &Factory{
		store:   store,
		faker:   gofakeit.New(seed),
		maxDays: maxDays,
		now:     time.Now,
	}
}

func (f *Factory) hashedPassword() (string, error) {
	if f.passwordHash != "" {
		return f.passwordHash, nil
	}
	// MinCost keeps large seeds fast; these accounts are demo-only.
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	f.passwordHash = string(hash)
	return f.passwordHash, nil
}

// pastTime returns a timestamp spread over the last maxDays days.
func (f *Factory) pastTime() time.Time {
	daysBack := f.faker.Number(0, f.maxDays-1)
	hoursBack := f.faker.Number(0, 23)
	minsBack := f.faker.Number(0, 59)
	return f.now().Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(hoursBack)*time.Hour - time.Duration(minsBack)*time.Minute)
}

func (f *Factory) username() string {
	base := strings.ToLower(f.faker.FirstName() + "_" + f.faker.LastName())
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return -1
	}, base)
	if len(base) > 26 {
		base = base[:26]
	}
	return fmt.Sprintf("%s%d", base, f.faker.Number(100, 99999))
}

// CreateUser persists a user with generated names and the default password.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hashedPassword()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:  f.username(),
		Password:  hash,
		FullName:  f.faker.Name(),
		CreatedAt: f.pastTime(),
	}
	if f.faker.Bool() {
		avatar := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID())
		user.Avatar = &avatar
	}
	if f.faker.Number(1, 5) == 1 {
		role := f.faker.JobTitle()
		user.Role = &role
	}

	for _, override := range overrides {
		override(user)
	}
	if err := f.store.Users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// BuildPost constructs an unsaved post owned by user.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) *models.Post {
	fileName := strings.ToLower(strings.ReplaceAll(f.faker.BS(), " ", "-")) + "-" + f.faker.Word() + ".pdf"
	post := &models.Post{
		Title:       strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 7)), "."),
		Description: f.faker.Paragraph(1, 3, 12, " "),
		FileName:    &fileName,
		UserID:      user.ID,
		CreatedAt:   f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePost persists a generated post and logs its creation.
func (f *Factory) CreatePost(ctx context.Context, user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(user, overrides...)
	if err := f.store.Posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	f.recordActivity(ctx, user, models.ActionPostCreated, &post.ID, fmt.Sprintf("%s shared %q", user.FullName, post.Title), post.CreatedAt)
	return post, nil
}

// CreateComment persists a comment from user on post, after the post was created.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	createdAt := post.CreatedAt
	if span := f.now().Sub(post.CreatedAt); span > 0 {
		createdAt = post.CreatedAt.Add(time.Duration(f.faker.Float64Range(0, 1) * float64(span)))
	}
	comment := &models.Comment{
		Content:   f.faker.Sentence(f.faker.Number(4, 16)),
		PostID:    post.ID,
		UserID:    user.ID,
		CreatedAt: createdAt,
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.store.Comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	f.recordActivity(ctx, user, models.ActionCommentCreated, &post.ID, fmt.Sprintf("%s commented on %q", user.FullName, post.Title), comment.CreatedAt)
	return comment, nil
}

// Like makes user like post, leaving it liked even if a previous call already did.
func (f *Factory) Like(ctx context.Context, user *models.User, post *models.Post) error {
	liked, err := f.store.Posts.IsLiked(ctx, post.ID, user.ID)
	if err != nil {
		return err
	}
	if liked {
		return nil
	}
	if _, _, err := f.store.Posts.ToggleLike(ctx, post.ID, user.ID); err != nil {
		return fmt.Errorf("like post %d: %w", post.ID, err)
	}
	f.recordActivity(ctx, user, models.ActionPostLiked, &post.ID, fmt.Sprintf("%s liked %q", user.FullName, post.Title), f.now())
	return nil
}

func (f *Factory) recordActivity(ctx context.Context, user *models.User, action string, postID *uint, summary string, at time.Time) {
	// Seeded activity is best-effort, like the live log.
	_ = f.store.Activities.Create(ctx, &models.Activity{
		UserID:    user.ID,
		Action:    action,
		PostID:    postID,
		Summary:   summary,
		CreatedAt: at,
	})
}
