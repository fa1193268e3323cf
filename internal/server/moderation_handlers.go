package server

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/service"
)

// ModerateComment handles POST /api/comments/:id/moderate. Only the author of
// the comment's post may approve or hide it.
func (s *Server) ModerateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Action string `json:"action"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.moderationService.ModerateComment(c.Context(), service.ModerateCommentInput{
		ActorID:   userID,
		CommentID: commentID,
		Action:    req.Action,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// GetModerationQueue handles GET /api/posts/:id/moderation. The post author
// reviews comments on their post, optionally filtered by status.
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)
	status := c.Query("status")

	comments, err := s.moderationService.ModerationQueue(c.Context(), userID, postID, status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"comments": comments})
}

// ReportComment handles POST /api/comments/:id/report.
func (s *Server) ReportComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	report, err := s.moderationService.ReportComment(c.Context(), service.ReportCommentInput{
		ReporterID: userID,
		CommentID:  commentID,
		Reason:     req.Reason,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// ResolveReport handles POST /api/reports/:id/resolve.
func (s *Server) ResolveReport(c *fiber.Ctx) error {
	reportID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	if err := s.moderationService.ResolveReport(c.Context(), userID, reportID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Report resolved"})
}

// GetOpenReports handles GET /api/reports. Admin only.
func (s *Server) GetOpenReports(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)
	p := parsePagination(c, 50)

	reports, err := s.moderationService.OpenReports(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"reports": reports})
}
