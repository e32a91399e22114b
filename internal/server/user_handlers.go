package server

import (
	"docfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile returns the authenticated user together with their evaluated feature flags.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	user, err := s.userService.GetByID(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(struct {
		*models.User
		Features map[string]bool `json:"features"`
	}{
		User:     user,
		Features: s.featureFlags.Snapshot(userID),
	})
}
