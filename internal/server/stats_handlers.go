package server

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
)

// SiteStats handles GET /api/stats with public aggregate counts.
func (s *Server) SiteStats(c *fiber.Ctx) error {
	var users, posts, comments, tags int64

	q := s.db.WithContext(c.UserContext())
	if err := q.Model(&models.User{}).Count(&users).Error; err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	if err := q.Model(&models.Post{}).Where("published = ?", true).Count(&posts).Error; err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	if err := q.Model(&models.Comment{}).Count(&comments).Error; err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	if err := q.Model(&models.Tag{}).Count(&tags).Error; err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"users":    users,
		"posts":    posts,
		"comments": comments,
		"tags":     tags,
	})
}
