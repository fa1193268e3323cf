package service

import (
	"context"
	"time"

	"inkwell/internal/cache"
	"inkwell/internal/middleware"
)

// ViewFlusher periodically moves view counts accumulated in Redis into the
// posts table. Views are counted in Redis on the hot path so a read never
// writes to Postgres.
type ViewFlusher struct {
	posts    *PostService
	interval time.Duration
}

func NewViewFlusher(posts *PostService, interval time.Duration) *ViewFlusher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ViewFlusher{posts: posts, interval: interval}
}

// Run flushes until the context is cancelled, then performs a final flush so
// counts survive shutdown.
func (f *ViewFlusher) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			f.Flush(context.WithoutCancel(ctx))
			return
		case <-ticker.C:
			f.Flush(ctx)
		}
	}
}

// Flush drains every dirty counter once.
func (f *ViewFlusher) Flush(ctx context.Context) {
	for _, postID := range cache.TakeDirtyViewPosts(ctx) {
		n := cache.DrainPostViews(ctx, postID)
		if n == 0 {
			continue
		}
		if err := f.posts.RecordView(ctx, postID, n); err != nil && middleware.Logger != nil {
			middleware.Logger.WarnContext(ctx, "failed to flush post views",
				"post_id", postID, "views", n, "error", err)
		}
	}
}
