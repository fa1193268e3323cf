package seed

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// Factory creates realistic fake records for development databases.
type Factory struct {
	db *gorm.DB
}

func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{db: db}
}

// CreateUser inserts a user with a bcrypt-hashed default password
// ("Password123!seed"), so seeded accounts can actually log in.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("Password123!seed"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: fmt.Sprintf("%s%d", gofakeit.Username(), gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: string(hash),
		Bio:      gofakeit.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
	}
	for _, o := range overrides {
		o(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost inserts a published post with a unique slug.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	title := gofakeit.Sentence(gofakeit.Number(4, 8))
	post := &models.Post{
		Title:           title,
		Slug:            fmt.Sprintf("%s-%d", repository.Slugify(title), gofakeit.Number(1000, 9999)),
		Content:         gofakeit.Paragraph(3, 5, 12, "\n\n"),
		UserID:          user.ID,
		Published:       true,
		CommentsEnabled: true,
	}
	for _, o := range overrides {
		o(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment inserts a comment. Pass a nil parent for a top-level comment.
// The matching commenter-statistics counter is bumped the same way the live
// write path does it.
func (f *Factory) CreateComment(user *models.User, post *models.Post, parent *models.Comment, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(gofakeit.Number(5, 20)),
		PostID:  post.ID,
		UserID:  user.ID,
		Status:  models.CommentStatusApproved,
	}
	if parent != nil {
		comment.ParentID = &parent.ID
	}
	for _, o := range overrides {
		o(comment)
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}

	err := f.db.Exec(`
		INSERT INTO commenter_stats (post_author_id, commenter_id, comment_count, last_comment_at)
		VALUES (?, ?, 1, ?)
		ON CONFLICT (post_author_id, commenter_id)
		DO UPDATE SET comment_count = commenter_stats.comment_count + 1, last_comment_at = EXCLUDED.last_comment_at`,
		post.UserID, user.ID, time.Now()).Error
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateThread builds a reply chain under a post: a top-level comment plus up
// to maxDepth levels of replies by random users.
func (f *Factory) CreateThread(users []*models.User, post *models.Post, maxDepth int) error {
	if maxDepth > models.MaxThreadDepth {
		maxDepth = models.MaxThreadDepth
	}
	parent, err := f.CreateComment(users[rand.Intn(len(users))], post, nil)
	if err != nil {
		return err
	}
	for depth := 1; depth <= maxDepth; depth++ {
		if rand.Float64() < 0.3 {
			break
		}
		reply, err := f.CreateComment(users[rand.Intn(len(users))], post, parent)
		if err != nil {
			return err
		}
		parent = reply
	}
	return nil
}

// LikeComment inserts a like row, ignoring duplicates.
func (f *Factory) LikeComment(user *models.User, comment *models.Comment) error {
	like := &models.CommentLike{UserID: user.ID, CommentID: comment.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// Follow inserts a follow edge, ignoring duplicates and self-follows.
func (f *Factory) Follow(follower, followee *models.User) error {
	if follower.ID == followee.ID {
		return nil
	}
	row := &models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error
}
