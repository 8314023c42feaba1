package server

import "github.com/gofiber/fiber/v2"

// GetBullshitters returns users with negative fame grouped by expertise area.
func (s *Server) GetBullshitters(c *fiber.Ctx) error {
	groups, err := s.services.Moderation.Bullshitters(c.UserContext())
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(nonNil(groups))
}
