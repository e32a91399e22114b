package server

import "github.com/gofiber/fiber/v2"

// GetActivities returns the recent activity log.
func (s *Server) GetActivities(c *fiber.Ctx) error {
	activities, err := s.activityService.List(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(activities)
}
