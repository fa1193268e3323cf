package server

import (
	"github.com/gofiber/fiber/v2"

	"inkwell/internal/cache"
	"inkwell/internal/models"
	"inkwell/internal/service"
)

type postRequest struct {
	Title           *string  `json:"title"`
	Content         *string  `json:"content"`
	CoverImageURL   *string  `json:"cover_image_url"`
	Published       *bool    `json:"published"`
	CommentsEnabled *bool    `json:"comments_enabled"`
	Tags            []string `json:"tags"`
}

// CreatePost handles POST /api/posts.
func (s *Server) CreatePost(c *fiber.Ctx) error {
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	in := service.CreatePostInput{
		UserID:          userID,
		CommentsEnabled: req.CommentsEnabled,
		Tags:            req.Tags,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}
	if req.Content != nil {
		in.Content = *req.Content
	}
	if req.CoverImageURL != nil {
		in.CoverImageURL = *req.CoverImageURL
	}
	if req.Published != nil {
		in.Published = *req.Published
	}

	post, err := s.postService.CreatePost(c.Context(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPosts handles GET /api/posts: published posts, newest first.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	posts, total, err := s.postService.ListPosts(c.Context(), service.ListPostsInput{
		Limit:         p.Limit,
		Offset:        p.Offset,
		CurrentUserID: currentUserID(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"posts": posts,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
	})
}

// GetPost handles GET /api/posts/:id.
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.Context(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetPostBySlug handles GET /api/posts/slug/:slug, the public article page.
// Each published-page hit bumps the Redis view counter; the flusher folds
// those into Postgres later.
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")

	post, err := s.postService.GetPostBySlug(c.Context(), slug, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}

	if post.Published {
		pending := cache.IncrementPostViews(c.Context(), post.ID)
		if pending > 0 {
			cache.MarkPostViewed(c.Context(), post.ID)
			post.Views += pending
		}
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id. Absent fields are left untouched.
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.postService.UpdatePost(c.Context(), service.UpdatePostInput{
		UserID:          userID,
		PostID:          postID,
		Title:           req.Title,
		Content:         req.Content,
		CoverImageURL:   req.CoverImageURL,
		Published:       req.Published,
		CommentsEnabled: req.CommentsEnabled,
		Tags:            req.Tags,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id.
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := c.Locals("userID").(uint)

	if err := s.postService.DeletePost(c.Context(), userID, postID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// GetUserPosts handles GET /api/users/:id/posts.
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)

	posts, err := s.postService.ListUserPosts(c.Context(), targetID, currentUserID(c), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetTags handles GET /api/tags.
func (s *Server) GetTags(c *fiber.Ctx) error {
	tags, err := s.postService.ListTags(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tags": tags})
}

// GetPostsByTag handles GET /api/tags/:slug/posts.
func (s *Server) GetPostsByTag(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	posts, err := s.postService.PostsByTag(c.Context(), c.Params("slug"), p.Limit, p.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}
