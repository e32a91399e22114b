package server

import (
	"docfeed/internal/models"
	"docfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts returns the feed, newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	viewerID := s.optionalUserID(c)
	items, err := s.feedService.ListFeed(c.UserContext(), viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetPost returns a single post.
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID := s.optionalUserID(c)

	item, err := s.feedService.GetPost(c.UserContext(), id, viewerID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

type createPostRequest struct {
	Title       string `json:"title" form:"title"`
	Description string `json:"description" form:"description"`
	FileName    string `json:"fileName" form:"fileName"`
}

// CreatePost creates a post owned by the authenticated user.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:      currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		FileName:    req.FileName,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// LikePost toggles the authenticated user's like on a post.
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.postService.ToggleLike(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}
