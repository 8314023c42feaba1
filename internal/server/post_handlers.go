package server

import (
	"log/slog"

	"famefeed/internal/cache"
	"famefeed/internal/middleware"
	"famefeed/internal/models"
	"famefeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

type submitPostRequest struct {
	Content     string `json:"content"`
	CitesID     *uint  `json:"cites_id"`
	RepliesToID *uint  `json:"replies_to_id"`
}

type ratePostRequest struct {
	Type  models.RatingType `json:"type"`
	Score int               `json:"score"`
}

// SubmitPost classifies and stores a post for the current user. When the
// submission bans the author their sessions are revoked and the response
// asks the client to log out.
func (s *Server) SubmitPost(c *fiber.Ctx) error {
	var req submitPostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	userID := currentUserID(c)
	res, err := s.services.Posts.SubmitPost(c.UserContext(), service.SubmitPostInput{
		AuthorID:    userID,
		Content:     req.Content,
		CitesID:     req.CitesID,
		RepliesToID: req.RepliesToID,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}

	if res.RedirectToLogout {
		if err := cache.RevokeUser(c.UserContext(), userID); err != nil {
			middleware.Logger.WarnContext(c.UserContext(), "failed to revoke sessions of banned user",
				slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		}
	}

	return c.Status(fiber.StatusCreated).JSON(res)
}

// RatePost records or updates the current user's rating of a post.
func (s *Server) RatePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req ratePostRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.services.Posts.RatePost(c.UserContext(), service.RatePostInput{
		UserID: currentUserID(c),
		PostID: postID,
		Type:   req.Type,
		Score:  req.Score,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}

	status := fiber.StatusOK
	if res.Outcome == service.RateOutcomeNew {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(res)
}

// SearchPosts lists posts containing the keyword, newest first.
func (s *Server) SearchPosts(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return nil
	}
	published, err := parseBool(c, "published", true)
	if err != nil {
		return nil
	}

	posts, err := s.services.Feed.Search(c.UserContext(), service.SearchQuery{
		Keyword:   c.Query("q"),
		Page:      page,
		Published: published,
	})
	if err != nil {
		return respondWithAppError(c, err)
	}
	return c.JSON(nonNil(posts))
}
