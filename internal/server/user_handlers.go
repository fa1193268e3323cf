package server

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/models"
	"inkwell/internal/service"
)

// GetMyProfile handles GET /api/users/me.
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	user, err := s.userService.GetUser(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	followers, following, err := s.followService.Counts(c.Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":      user,
		"followers": followers,
		"following": following,
	})
}

// UpdateMyProfile handles PUT /api/users/me. Empty fields are left untouched.
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		Username string `json:"username"`
		Bio      string `json:"bio"`
		Avatar   string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:   userID,
		Username: req.Username,
		Bio:      req.Bio,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// ChangePassword handles PUT /api/users/me/password.
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userService.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated"})
}

// DeactivateAccount handles DELETE /api/users/me. The account is soft-deleted,
// which removes the user's comments from every thread.
func (s *Server) DeactivateAccount(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	if err := s.userService.Deactivate(c.Context(), userID, userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Account deactivated"})
}

// GetUserProfile handles GET /api/users/:id: a public profile with follower
// counts and, when the viewer is logged in, their follow state.
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUser(c.Context(), targetID)
	if err != nil {
		return respondError(c, err)
	}
	followers, following, err := s.followService.Counts(c.Context(), targetID)
	if err != nil {
		return respondError(c, err)
	}

	resp := fiber.Map{
		"user":      user.Summary(),
		"bio":       user.Bio,
		"followers": followers,
		"following": following,
	}
	if viewerID := currentUserID(c); viewerID != 0 && viewerID != targetID {
		isFollowing, err := s.followService.IsFollowing(c.Context(), viewerID, targetID)
		if err != nil {
			return respondError(c, err)
		}
		resp["is_following"] = isFollowing
	}
	return c.JSON(resp)
}

// PromoteToAdmin handles POST /api/users/:id/promote-admin. Admin only.
func (s *Server) PromoteToAdmin(c *fiber.Ctx) error {
	return s.setAdminStatus(c, true)
}

// DemoteFromAdmin handles POST /api/users/:id/demote-admin. Admin only.
func (s *Server) DemoteFromAdmin(c *fiber.Ctx) error {
	return s.setAdminStatus(c, false)
}

func (s *Server) setAdminStatus(c *fiber.Ctx, isAdmin bool) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	actorID := c.Locals("userID").(uint)

	user, err := s.userService.SetAdmin(c.Context(), actorID, targetID, isAdmin)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
