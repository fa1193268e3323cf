package server

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/service"
)

// GetPostComments handles GET /api/posts/:id/comments. It returns the full
// reply tree, oldest first at every level, with like counts and top-commenter
// flags resolved in batch. Anonymous viewers are allowed; the post author
// additionally sees hidden comments.
func (s *Server) GetPostComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	viewerID := currentUserID(c)

	// Anonymous trees are the hot path and safe to cache; viewers with a
	// token may see extra nodes, so they always hit the database.
	useCache := viewerID == 0 && s.redis != nil
	cacheKey := ""
	if useCache {
		post, perr := s.postRepo.GetByID(c.Context(), postID)
		if perr == nil {
			cacheKey = cache.PostTreeKey(post.Slug)
			if cached, cerr := s.redis.Get(c.Context(), cacheKey).Result(); cerr == nil {
				c.Set("Content-Type", "application/json")
				c.Set("X-Cache", "HIT")
				return c.SendString(cached)
			}
		}
	}

	tree, err := s.commentService.ListThread(c.Context(), viewerID, postID)
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{"comments": tree}
	if useCache && cacheKey != "" {
		if payload, merr := json.Marshal(body); merr == nil {
			s.redis.Set(c.Context(), cacheKey, payload, cache.PostTreeTTL)
		}
	}
	return c.JSON(body)
}

// CreateComment handles POST /api/posts/:id/comments.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID:  userID,
		PostID:  postID,
		Content: req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// CreateReply handles POST /api/comments/:id/replies. The reply lands on the
// same post as its parent; replies below the maximum depth are rejected.
func (s *Server) CreateReply(c *fiber.Ctx) error {
	parentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	parent, perr := s.commentRepo.GetByID(c.Context(), parentID)
	if perr != nil {
		return respondError(c, models.NewNotFoundError("Parent comment", parentID))
	}

	comment, err := s.commentService.CreateComment(c.Context(), service.CreateCommentInput{
		UserID:   userID,
		PostID:   parent.PostID,
		ParentID: &parentID,
		Content:  req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// UpdateComment handles PUT /api/comments/:id.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.UpdateComment(c.Context(), service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/comments/:id. The comment and its entire
// reply subtree are soft-deleted in one transaction.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	removed, err := s.commentService.DeleteComment(c.Context(), service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Comment deleted",
		"removed": removed,
	})
}

// LikeComment handles POST /api/comments/:id/like.
func (s *Server) LikeComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	count, err := s.commentService.LikeComment(c.Context(), userID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"likes_count": count})
}

// UnlikeComment handles DELETE /api/comments/:id/like.
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	count, err := s.commentService.UnlikeComment(c.Context(), userID, commentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"likes_count": count})
}

// GetRecentComments handles GET /api/comments/recent: the newest top-level
// comments across all published posts.
func (s *Server) GetRecentComments(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	page, err := s.commentService.RecentComments(c.Context(), p.Page, p.Limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}
