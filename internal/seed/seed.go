// Package seed fills a development database with realistic fake content:
// users, tagged posts, reply threads, likes and follows.
package seed

import (
	"fmt"
	"log"
	"math/rand"

	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Options configure a seeding run.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

var defaultTags = []string{
	"Go", "Databases", "Web", "DevOps", "Linux", "Testing",
	"Performance", "Security", "Career", "Open Source",
}

// Run populates the database. With ShouldClean set, generated tables are
// truncated first.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 20
	}
	if opts.NumPosts <= 0 {
		opts.NumPosts = 50
	}

	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return fmt.Errorf("cleaning database: %w", err)
		}
	}

	tags, err := ensureTags(db)
	if err != nil {
		return fmt.Errorf("seeding tags: %w", err)
	}

	f := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("Seeded %d users", len(users))

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[rand.Intn(len(users))]
		post, err := f.CreatePost(author, func(p *models.Post) {
			n := rand.Intn(3) + 1
			for _, idx := range rand.Perm(len(tags))[:n] {
				p.Tags = append(p.Tags, tags[idx])
			}
		})
		if err != nil {
			return fmt.Errorf("creating post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("Seeded %d posts", len(posts))

	threads := 0
	for _, post := range posts {
		n := rand.Intn(4)
		for i := 0; i < n; i++ {
			if err := f.CreateThread(users, post, rand.Intn(models.MaxThreadDepth+1)); err != nil {
				return fmt.Errorf("creating thread: %w", err)
			}
			threads++
		}
	}
	log.Printf("Seeded %d comment threads", threads)

	var comments []*models.Comment
	if err := db.Find(&comments).Error; err != nil {
		return err
	}
	likes := 0
	for _, comment := range comments {
		for i := 0; i < rand.Intn(4); i++ {
			if err := f.LikeComment(users[rand.Intn(len(users))], comment); err != nil {
				return fmt.Errorf("liking comment: %w", err)
			}
			likes++
		}
	}
	log.Printf("Seeded %d comment likes", likes)

	follows := 0
	for _, follower := range users {
		for i := 0; i < rand.Intn(5); i++ {
			if err := f.Follow(follower, users[rand.Intn(len(users))]); err != nil {
				return fmt.Errorf("creating follow: %w", err)
			}
			follows++
		}
	}
	log.Printf("Seeded %d follows", follows)

	return nil
}

func ensureTags(db *gorm.DB) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(defaultTags))
	for _, name := range defaultTags {
		tag := models.Tag{Name: name, Slug: repository.Slugify(name)}
		if err := db.Where("slug = ?", tag.Slug).FirstOrCreate(&tag).Error; err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

func clean(db *gorm.DB) error {
	// Deletion order respects foreign keys.
	for _, model := range []interface{}{
		&models.CommentLike{},
		&models.CommentReport{},
		&models.CommenterStats{},
		&models.Notification{},
		&models.Comment{},
		&models.Follow{},
		&models.Image{},
		&models.Post{},
		&models.Tag{},
		&models.User{},
	} {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
