package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"inkwell/internal/models"
)

// CommentNode is one comment in an assembled thread tree. Replies is never
// nil so the JSON shape is stable for clients.
type CommentNode struct {
	ID             uint                 `json:"id"`
	Content        string               `json:"content"`
	PostID         uint                 `json:"post_id"`
	ParentID       *uint                `json:"parent_id"`
	Status         models.CommentStatus `json:"status"`
	Author         models.AuthorSummary `json:"author"`
	LikeCount      int64                `json:"like_count"`
	IsTopCommenter bool                 `json:"is_top_commenter"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Replies        []*CommentNode       `json:"replies"`
}

// RecentCommentsPage is one page of the site-wide recent comments feed.
type RecentCommentsPage struct {
	Comments []*CommentNode `json:"comments"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	Limit    int            `json:"limit"`
}

func newCommentNode(c *models.Comment, likeCount int64, topCommenter bool) *CommentNode {
	return &CommentNode{
		ID:             c.ID,
		Content:        c.Content,
		PostID:         c.PostID,
		ParentID:       c.ParentID,
		Status:         c.Status,
		Author:         c.User.Summary(),
		LikeCount:      likeCount,
		IsTopCommenter: topCommenter,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
		Replies:        []*CommentNode{},
	}
}

// assembleThread builds the reply tree from a flat, created_at-ordered comment
// list in one pass over an adjacency map. No queries happen here. Traversal
// stops at MaxThreadDepth; replies whose parent was filtered out upstream
// (hidden from this viewer, or authored by a deactivated user) are dropped
// with their subtree.
func assembleThread(
	comments []*models.Comment,
	likeCounts map[uint]int64,
	topCommenters map[uint]bool,
) []*CommentNode {
	nodes := make(map[uint]*CommentNode, len(comments))
	children := make(map[uint][]*CommentNode)
	roots := []*CommentNode{}

	for _, c := range comments {
		n := newCommentNode(c, likeCounts[c.ID], topCommenters[c.UserID])
		nodes[c.ID] = n
		if c.ParentID == nil {
			roots = append(roots, n)
		} else {
			children[*c.ParentID] = append(children[*c.ParentID], n)
		}
	}

	type frame struct {
		node  *CommentNode
		depth int
	}
	queue := make([]frame, 0, len(roots))
	for _, r := range roots {
		queue = append(queue, frame{r, 0})
	}
	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]
		if f.depth >= models.MaxThreadDepth {
			continue
		}
		for _, child := range children[f.node.ID] {
			f.node.Replies = append(f.node.Replies, child)
			queue = append(queue, frame{child, f.depth + 1})
		}
	}
	return roots
}

// ListThread returns the full comment tree for a post, oldest first at every
// level. Hidden comments (and their subtrees) are omitted unless the viewer
// is the post author. Like counts and top-commenter flags are resolved with
// one batched query each, regardless of thread size.
func (s *CommentService) ListThread(ctx context.Context, viewerID, postID uint) ([]*CommentNode, error) {
	post, err := s.postByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.Published && post.UserID != viewerID {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if !post.CommentsEnabled {
		return nil, models.NewForbiddenError("Comments are disabled for this post")
	}

	includeHidden := viewerID != 0 && viewerID == post.UserID
	comments, err := s.commentRepo.ListForPost(ctx, postID, includeHidden)
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return []*CommentNode{}, nil
	}

	ids := make([]uint, 0, len(comments))
	commenterIDs := make([]uint, 0, len(comments))
	seen := make(map[uint]struct{}, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
		if _, ok := seen[c.UserID]; !ok {
			seen[c.UserID] = struct{}{}
			commenterIDs = append(commenterIDs, c.UserID)
		}
	}

	likeCounts, err := s.likeRepo.CountForComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	topCommenters, err := s.statsRepo.TopCommenters(ctx, post.UserID, commenterIDs)
	if err != nil {
		return nil, err
	}

	return assembleThread(comments, likeCounts, topCommenters), nil
}

// RecentComments returns the newest top-level comments across all published
// posts. Nodes come back flat, without replies.
func (s *CommentService) RecentComments(ctx context.Context, page, limit int) (*RecentCommentsPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := (page - 1) * limit

	comments, total, err := s.commentRepo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	likeCounts := map[uint]int64{}
	if len(ids) > 0 {
		likeCounts, err = s.likeRepo.CountForComments(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	nodes := make([]*CommentNode, 0, len(comments))
	for _, c := range comments {
		nodes = append(nodes, newCommentNode(c, likeCounts[c.ID], false))
	}
	return &RecentCommentsPage{Comments: nodes, Total: total, Page: page, Limit: limit}, nil
}

// IsTopCommenter reports whether commenter has crossed the top-commenter
// threshold on postAuthor's posts. A user is never a top commenter on their
// own posts.
func (s *CommentService) IsTopCommenter(ctx context.Context, postAuthorID, commenterID uint) (bool, error) {
	ok, err := s.statsRepo.IsTopCommenter(ctx, postAuthorID, commenterID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return ok, nil
}
