package seed

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Fixtures is the shape of a YAML fixture file: named accounts and their
// posts, loaded verbatim instead of generated.
type Fixtures struct {
	Users []FixtureUser `yaml:"users"`
}

type FixtureUser struct {
	Username string        `yaml:"username"`
	Email    string        `yaml:"email"`
	Password string        `yaml:"password"`
	Bio      string        `yaml:"bio"`
	IsAdmin  bool          `yaml:"is_admin"`
	Posts    []FixturePost `yaml:"posts"`
}

type FixturePost struct {
	Title     string   `yaml:"title"`
	Content   string   `yaml:"content"`
	Published bool     `yaml:"published"`
	Tags      []string `yaml:"tags"`
}

// LoadFixtures reads a YAML fixture file and inserts its users and posts.
// Existing usernames are skipped, so re-running is safe.
func LoadFixtures(db *gorm.DB, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading fixture file: %w", err)
	}

	var fx Fixtures
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return fmt.Errorf("parsing fixture file: %w", err)
	}

	for _, fu := range fx.Users {
		var existing models.User
		err := db.Where("username = ?", fu.Username).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(fu.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := models.User{
			Username: fu.Username,
			Email:    fu.Email,
			Password: string(hash),
			Bio:      fu.Bio,
			IsAdmin:  fu.IsAdmin,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("creating fixture user %q: %w", fu.Username, err)
		}

		for _, fp := range fu.Posts {
			post := models.Post{
				Title:           fp.Title,
				Slug:            repository.Slugify(fp.Title),
				Content:         fp.Content,
				UserID:          user.ID,
				Published:       fp.Published,
				CommentsEnabled: true,
			}
			for _, name := range fp.Tags {
				var tag models.Tag
				if err := db.Where("slug = ?", repository.Slugify(name)).
					FirstOrCreate(&tag, models.Tag{Name: name, Slug: repository.Slugify(name)}).Error; err != nil {
					return err
				}
				post.Tags = append(post.Tags, tag)
			}
			if err := db.Create(&post).Error; err != nil {
				return fmt.Errorf("creating fixture post %q: %w", fp.Title, err)
			}
		}
	}
	return nil
}
