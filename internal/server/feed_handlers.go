package server

import (
	"famefeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTimeline returns the current user's standard or community timeline.
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	mode, err := service.ParseTimelineMode(c.Query("mode"))
	if err != nil {
		return respondWithAppError(c, err)
	}
	page, err := parsePage(c)
	if err != nil {
		return nil
	}
	published, err := parseBool(c, "published", true)
	if err != nil {
		return nil
	}

	posts, err := s.services.Feed.Timeline(c.UserContext(), service.TimelineQuery{
		UserID:    currentUserID(c),
		Mode:      mode,
		Page:      page,
		Published: published,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(nonNil(posts))
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"raw":       map[string]string{},
			"evaluated": map[string]bool{},
		})
	}
	return c.JSON(fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(userID),
	})
}
