package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// PostService implements the article lifecycle: drafting, publishing, slug
// assignment and tagging. Comments hang off posts but live in CommentService.
type PostService struct {
	postRepo    repository.PostRepository
	tagRepo     repository.TagRepository
	commentRepo repository.CommentRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
	invalidate  func(ctx context.Context, postSlug string)
}

type CreatePostInput struct {
	UserID          uint
	Title           string
	Content         string
	CoverImageURL   string
	Published       bool
	CommentsEnabled *bool
	Tags            []string
}

type UpdatePostInput struct {
	UserID          uint
	PostID          uint
	Title           *string
	Content         *string
	CoverImageURL   *string
	Published       *bool
	CommentsEnabled *bool
	Tags            []string
}

type ListPostsInput struct {
	Limit         int
	Offset        int
	CurrentUserID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	tagRepo repository.TagRepository,
	commentRepo repository.CommentRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
	invalidate func(ctx context.Context, postSlug string),
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		tagRepo:     tagRepo,
		commentRepo: commentRepo,
		isAdmin:     isAdmin,
		invalidate:  invalidate,
	}
}

const (
	maxTitleLen   = 300
	maxContentLen = 100000
	maxTagCount   = 10
)

func validatePostFields(title, content string) error {
	if title == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxTitleLen {
		return models.NewValidationError("Title too long (max 300 characters)")
	}
	if content == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxContentLen {
		return models.NewValidationError("Content too long (max 100000 characters)")
	}
	return nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if err := validatePostFields(in.Title, in.Content); err != nil {
		return nil, err
	}
	if len(in.Tags) > maxTagCount {
		return nil, models.NewValidationError("Too many tags (max 10)")
	}

	slug := repository.Slugify(in.Title)
	if slug == "" {
		return nil, models.NewValidationError("Title must contain at least one letter or digit")
	}
	// Slugs double as URLs, so collisions get a numeric suffix rather than
	// an error.
	if _, err := s.postRepo.GetBySlug(ctx, slug); err == nil {
		for i := 2; ; i++ {
			candidate := fmt.Sprintf("%s-%d", slug, i)
			if _, err := s.postRepo.GetBySlug(ctx, candidate); errors.Is(err, gorm.ErrRecordNotFound) {
				slug = candidate
				break
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	commentsEnabled := true
	if in.CommentsEnabled != nil {
		commentsEnabled = *in.CommentsEnabled
	}

	post := &models.Post{
		Title:           in.Title,
		Slug:            slug,
		Content:         in.Content,
		CoverImageURL:   in.CoverImageURL,
		UserID:          in.UserID,
		Published:       in.Published,
		CommentsEnabled: commentsEnabled,
	}
	if len(in.Tags) > 0 {
		tags, err := s.tagRepo.EnsureAll(ctx, in.Tags)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// GetPost returns a post by id. Drafts are only visible to their author.
func (s *PostService) GetPost(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, err
	}
	if !post.Published && post.UserID != viewerID {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// GetPostBySlug returns a post by its slug, for the public article page.
func (s *PostService) GetPostBySlug(ctx context.Context, slug string, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Post not found")
		}
		return nil, err
	}
	if !post.Published && post.UserID != viewerID {
		return nil, models.NewNotFoundMessageError("Post not found")
	}
	return post, nil
}

// ListPosts returns published posts, newest first, with per-post comment
// counts resolved in one grouped query.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, int64, error) {
	if in.Limit < 1 || in.Limit > 100 {
		in.Limit = 20
	}
	posts, total, err := s.postRepo.List(ctx, in.Limit, in.Offset, true)
	if err != nil {
		return nil, 0, err
	}

	if len(posts) > 0 {
		ids := make([]uint, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		counts, err := s.commentRepo.CountForPosts(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, p := range posts {
			p.CommentsCount = int(counts[p.ID])
		}
	}
	return posts, total, nil
}

// ListUserPosts returns a user's posts. Drafts are included only when the
// viewer is that user.
func (s *PostService) ListUserPosts(ctx context.Context, userID, viewerID uint, limit, offset int) ([]*models.Post, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	posts, err := s.postRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	if userID == viewerID {
		return posts, nil
	}
	published := posts[:0]
	for _, p := range posts {
		if p.Published {
			published = append(published, p)
		}
	}
	return published, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", in.PostID)
		}
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if err := validatePostFields(post.Title, post.Content); err != nil {
		return nil, err
	}
	if in.CoverImageURL != nil {
		post.CoverImageURL = *in.CoverImageURL
	}
	if in.Published != nil {
		post.Published = *in.Published
	}
	if in.CommentsEnabled != nil {
		post.CommentsEnabled = *in.CommentsEnabled
	}
	if in.Tags != nil {
		if len(in.Tags) > maxTagCount {
			return nil, models.NewValidationError("Too many tags (max 10)")
		}
		tags, err := s.tagRepo.EnsureAll(ctx, in.Tags)
		if err != nil {
			return nil, err
		}
		post.Tags = tags
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	if s.invalidate != nil {
		s.invalidate(ctx, post.Slug)
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

// DeletePost soft-deletes a post. The author may always delete their own
// post; admins may delete any post.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Post", postID)
		}
		return err
	}
	if post.UserID != userID {
		admin := false
		if s.isAdmin != nil {
			admin, err = s.isAdmin(ctx, userID)
			if err != nil {
				return err
			}
		}
		if !admin {
			return models.NewForbiddenError("You can only delete your own posts")
		}
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	if s.invalidate != nil {
		s.invalidate(ctx, post.Slug)
	}
	return nil
}

// ListTags returns all known tags.
func (s *PostService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return s.tagRepo.List(ctx)
}

// PostsByTag returns published posts carrying the given tag slug.
func (s *PostService) PostsByTag(ctx context.Context, tagSlug string, limit, offset int) ([]*models.Post, error) {
	tag, err := s.tagRepo.GetBySlug(ctx, tagSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("Tag not found")
		}
		return nil, err
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.tagRepo.PostsByTag(ctx, tag.ID, limit, offset)
}

// RecordView adds accumulated view counts to a post. Called by the analytics
// flusher with totals drained from Redis.
func (s *PostService) RecordView(ctx context.Context, postID uint, n int64) error {
	if n <= 0 {
		return nil
	}
	return s.postRepo.AddViews(ctx, postID, n)
}
