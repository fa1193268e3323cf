package cache

import (
	"context"
	"fmt"
	"time"

	"inkwell/internal/middleware"
)

const (
	PostKeyPrefix     = "post:%s"
	PostTreeKeyPrefix = "post:%s:comments"
	UserKeyPrefix     = "user:%d"
	RecentFeedKey     = "comments:recent"
	PostViewsPrefix   = "views:post:%d"
	DirtyViewsKey     = "views:dirty"
)

const (
	PostTTL       = 30 * time.Minute
	PostTreeTTL   = 5 * time.Minute
	UserTTL       = 5 * time.Minute
	RecentFeedTTL = time.Minute
)

// PostKey is the cache key for a rendered post, addressed by slug.
func PostKey(slug string) string {
	return fmt.Sprintf(PostKeyPrefix, slug)
}

// PostTreeKey is the cache key for a post's assembled comment tree.
func PostTreeKey(slug string) string {
	return fmt.Sprintf(PostTreeKeyPrefix, slug)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// PostViewsKey is the Redis counter key for a post's pending view increments.
func PostViewsKey(postID uint) string {
	return fmt.Sprintf(PostViewsPrefix, postID)
}

// Invalidate deletes a key. Failures are intentionally ignored: cache
// invalidation must never block or fail the triggering mutation.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidatePost drops the cached post and its comment tree by slug.
func InvalidatePost(ctx context.Context, slug string) {
	Invalidate(ctx, PostKey(slug))
	Invalidate(ctx, PostTreeKey(slug))
	Invalidate(ctx, RecentFeedKey)
	middleware.CacheInvalidations.WithLabelValues("post").Inc()
}

// InvalidateUser drops the cached profile for a user.
func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
	middleware.CacheInvalidations.WithLabelValues("user").Inc()
}

// IncrementPostViews bumps the pending view counter for a post and returns
// the new pending total. A zero return with nil client means counting is off.
func IncrementPostViews(ctx context.Context, postID uint) int64 {
	if client == nil {
		return 0
	}
	n, err := client.Incr(ctx, PostViewsKey(postID)).Result()
	if err != nil {
		return 0
	}
	return n
}

// MarkPostViewed records the post in the dirty set so the view flusher knows
// which counters to drain.
func MarkPostViewed(ctx context.Context, postID uint) {
	if client != nil {
		client.SAdd(ctx, DirtyViewsKey, postID)
	}
}

// TakeDirtyViewPosts pops every post id with pending view counts.
func TakeDirtyViewPosts(ctx context.Context) []uint {
	if client == nil {
		return nil
	}
	members, err := client.SMembers(ctx, DirtyViewsKey).Result()
	if err != nil || len(members) == 0 {
		return nil
	}
	client.Del(ctx, DirtyViewsKey)
	ids := make([]uint, 0, len(members))
	for _, m := range members {
		var id uint
		if _, err := fmt.Sscanf(m, "%d", &id); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// DrainPostViews atomically reads and resets the pending view counter.
func DrainPostViews(ctx context.Context, postID uint) int64 {
	if client == nil {
		return 0
	}
	n, err := client.GetDel(ctx, PostViewsKey(postID)).Int64()
	if err != nil {
		return 0
	}
	return n
}
