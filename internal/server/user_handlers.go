package server

import (
	"context"

	"famefeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// FollowUser makes the current user follow :id.
func (s *Server) FollowUser(c *fiber.Ctx) error {
	return s.followEdge(c, s.services.Graph.Follow)
}

// UnfollowUser removes the current user's follow of :id.
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	return s.followEdge(c, s.services.Graph.Unfollow)
}

func (s *Server) followEdge(c *fiber.Ctx, apply func(ctx context.Context, actorID, targetID uint) (bool, error)) error {
	targetID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	changed, err := apply(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(fiber.Map{"changed": changed})
}

// GetMyFollows lists the users the current user follows.
func (s *Server) GetMyFollows(c *fiber.Ctx) error {
	return s.listUsers(c, s.services.Graph.Follows)
}

// GetMyFollowers lists the users following the current user.
func (s *Server) GetMyFollowers(c *fiber.Ctx) error {
	return s.listUsers(c, s.services.Graph.Followers)
}

func (s *Server) listUsers(c *fiber.Ctx, list func(ctx context.Context, actorID uint, page models.Page) ([]models.User, error)) error {
	page, err := parsePage(c)
	if err != nil {
		return nil
	}
	users, err := list(c.UserContext(), currentUserID(c), page)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(nonNil(users))
}

// GetSimilarUsers ranks other users by fame similarity to the current user.
func (s *Server) GetSimilarUsers(c *fiber.Ctx) error {
	similar, err := s.services.Similarity.SimilarUsers(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(nonNil(similar))
}

// GetMyFame returns the current user's fame profile.
func (s *Server) GetMyFame(c *fiber.Ctx) error {
	return s.fameOf(c, currentUserID(c))
}

// GetUserFame returns the fame profile of :id.
func (s *Server) GetUserFame(c *fiber.Ctx) error {
	userID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.fameOf(c, userID)
}

func (s *Server) fameOf(c *fiber.Ctx, userID uint) error {
	profile, err := s.services.Ledger.FameOf(c.UserContext(), userID)
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(profile)
}
