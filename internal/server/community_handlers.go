package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetCommunities lists the current user's communities.
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	areas, err := s.services.Graph.Communities(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(nonNil(areas))
}

// JoinCommunity adds the current user to the community of area :id.
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	areaID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	changed, err := s.services.Graph.JoinCommunity(c.UserContext(), currentUserID(c), areaID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"changed": changed})
}

// LeaveCommunity removes the current user from the community of area :id.
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	areaID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	changed, err := s.services.Graph.LeaveCommunity(c.UserContext(), currentUserID(c), areaID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"changed": changed})
}
