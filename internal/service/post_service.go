package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"docfeed/internal/models"
	"docfeed/internal/observability"
	"docfeed/internal/repository"
	"docfeed/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTitleLen       = 300
	maxDescriptionLen = 10000
)

type PostService struct {
	posts    repository.PostRepository
	users    repository.UserRepository
	activity *ActivityService
}

type CreatePostInput struct {
	UserID      uint
	Title       string
	Description string
	FileName    string
}

func NewPostService(
	posts repository.PostRepository,
	users repository.UserRepository,
	activity *ActivityService,
) *PostService {
	return &PostService{posts: posts, users: users, activity: activity}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	title := strings.TrimSpace(in.Title)
	if err := validation.ValidateLength("Title", title, maxTitleLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if utf8.RuneCountInString(in.Description) > maxDescriptionLen {
		return nil, models.NewValidationError("Description too long (max 10000 characters)")
	}

	post := &models.Post{
		Title:       title,
		Description: in.Description,
		UserID:      in.UserID,
	}
	if name := strings.TrimSpace(in.FileName); name != "" {
		if err := validation.ValidateDocumentName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		post.FileName = &name
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	observability.PostsCreated.Inc()

	s.activity.Record(ctx, post.UserID, models.ActionPostCreated, &post.ID,
		fmt.Sprintf("%s shared %q", s.displayName(ctx, post.UserID), post.Title))
	return post, nil
}

// ToggleLike flips the viewer's like on a post and returns the new post state.
func (s *PostService) ToggleLike(ctx context.Context, postID, userID uint) (*models.LikeResult, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	span, ctx := observability.NewSpan(ctx, "post.toggle_like",
		attribute.Int64("post_id", int64(postID)),
		attribute.Int64("user_id", int64(userID)),
	)
	defer span.End()

	post, liked, err := s.posts.ToggleLike(ctx, postID, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	action, verb, result := models.ActionPostUnliked, "unliked", "unliked"
	if liked {
		action, verb, result = models.ActionPostLiked, "liked", "liked"
	}
	observability.LikeToggles.WithLabelValues(result).Inc()
	span.AddAttributes(attribute.Bool("liked", liked), attribute.Int("likes", post.Likes))

	s.activity.Record(ctx, userID, action, &post.ID,
		fmt.Sprintf("%s %s %q", s.displayName(ctx, userID), verb, post.Title))

	return &models.LikeResult{Post: post, HasLiked: liked}, nil
}

// displayName is best effort: activity summaries fall back to the user id.
func (s *PostService) displayName(ctx context.Context, userID uint) string {
	return lookupDisplayName(ctx, s.users, userID)
}

func lookupDisplayName(ctx context.Context, users repository.UserRepository, userID uint) string {
	if users != nil {
		if u, err := users.GetByID(ctx, userID); err == nil && u != nil {
			if u.FullName != "" {
				return u.FullName
			}
			return u.Username
		}
	}
	return fmt.Sprintf("user #%d", userID)
}
