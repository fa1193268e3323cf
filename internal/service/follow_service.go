package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// FollowEvents receives best-effort notifications about follow activity.
type FollowEvents interface {
	FollowerAdded(ctx context.Context, followee *models.User, follower *models.User)
}

// FollowService implements the follower graph.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	events     FollowEvents
}

func NewFollowService(
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	events FollowEvents,
) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, events: events}
}

func (s *FollowService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("You cannot follow yourself")
	}
	followee, err := s.userRepo.GetByID(ctx, followeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("User", followeeID)
		}
		return err
	}

	follow := &models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		if errors.Is(err, repository.ErrAlreadyFollowing) {
			return models.NewConflictError("You are already following this user")
		}
		return err
	}

	if s.events != nil {
		if follower, ferr := s.userRepo.GetByID(ctx, followerID); ferr == nil {
			s.events.FollowerAdded(ctx, followee, follower)
		}
	}
	return nil
}

func (s *FollowService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	if err := s.followRepo.Delete(ctx, followerID, followeeID); err != nil {
		if errors.Is(err, repository.ErrNotFollowing) {
			return models.NewConflictError("You are not following this user")
		}
		return err
	}
	return nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.followRepo.Exists(ctx, followerID, followeeID)
}

func (s *FollowService) Followers(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.followRepo.Followers(ctx, userID, limit, offset)
}

func (s *FollowService) Following(ctx context.Context, userID uint, limit, offset int) ([]*models.User, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	return s.followRepo.Following(ctx, userID, limit, offset)
}

func (s *FollowService) Counts(ctx context.Context, userID uint) (followers, following int64, err error) {
	return s.followRepo.Counts(ctx, userID)
}
