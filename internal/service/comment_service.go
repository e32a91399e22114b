package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docfeed/internal/models"
	"docfeed/internal/observability"
	"docfeed/internal/repository"
	"docfeed/internal/validation"
)

const maxCommentLen = 5000

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	authors  *AuthorResolver
	activity *ActivityService

	// Now is the clock used for relative timestamps.
	Now func() time.Time
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	authors *AuthorResolver,
	activity *ActivityService,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		authors:  authors,
		activity: activity,
		Now:      time.Now,
	}
}

// CreateComment stores the comment, bumping the post's counter atomically, and
// returns it with its author resolved.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.CommentView, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateLength("Comment", content, maxCommentLen); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	comment := &models.Comment{
		Content: content,
		PostID:  in.PostID,
		UserID:  in.UserID,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	observability.CommentsCreated.Inc()

	author, err := s.authors.Resolve(ctx, comment.UserID)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("post #%d", comment.PostID)
	if post, err := s.posts.GetByID(ctx, comment.PostID); err == nil && post != nil {
		title = fmt.Sprintf("%q", post.Title)
	}
	s.activity.Record(ctx, comment.UserID, models.ActionCommentCreated, &comment.PostID,
		fmt.Sprintf("%s commented on %s", displayNameOf(author), title))

	return &models.CommentView{
		Comment: *comment,
		Author:  author,
		TimeAgo: TimeAgo(comment.CreatedAt, s.Now()),
	}, nil
}

func displayNameOf(u *models.User) string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}
