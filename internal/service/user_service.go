package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"
)

// UserService implements profile management and account deactivation.
// Deactivation soft-deletes the account: the user disappears from assembled
// comment threads and feeds while their rows stay on disk.
type UserService struct {
	userRepo   repository.UserRepository
	invalidate func(ctx context.Context, userID uint)
}

type UpdateProfileInput struct {
	UserID   uint
	Username string
	Bio      string
	Avatar   string
}

func NewUserService(
	userRepo repository.UserRepository,
	invalidate func(ctx context.Context, userID uint),
) *UserService {
	return &UserService{userRepo: userRepo, invalidate: invalidate}
}

func (s *UserService) userByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userByID(ctx, id)
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessageError("User not found")
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500

	if in.Username != "" && in.Username != user.Username {
		if err := validation.ValidateUsername(in.Username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
			return nil, models.NewConflictError("Username already taken")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		user.Username = in.Username
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = in.Bio
	}
	if in.Avatar != "" {
		user.Avatar = in.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if s.invalidate != nil {
		s.invalidate(ctx, user.ID)
	}
	return user, nil
}

// ChangePassword verifies the current password before setting a new one.
func (s *UserService) ChangePassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.userByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		return models.NewUnauthorizedError("Current password is incorrect")
	}
	if err := validation.ValidatePassword(next); err != nil {
		return models.NewValidationError(err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return models.NewInternalError(err)
	}
	user.Password = string(hash)
	return s.userRepo.Update(ctx, user)
}

// Deactivate soft-deletes the account. Existing comments stay stored but no
// longer surface in threads or feeds.
func (s *UserService) Deactivate(ctx context.Context, actorID, targetID uint) error {
	if actorID != targetID {
		admin, err := s.userRepo.IsAdmin(ctx, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("You can only deactivate your own account")
		}
	}
	if _, err := s.userByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.userRepo.Deactivate(ctx, targetID); err != nil {
		return err
	}
	if s.invalidate != nil {
		s.invalidate(ctx, targetID)
	}
	return nil
}

// SetAdmin toggles the admin flag. Admin only.
func (s *UserService) SetAdmin(ctx context.Context, actorID, targetID uint, isAdmin bool) (*models.User, error) {
	admin, err := s.userRepo.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewForbiddenError("Admin access required")
	}

	user, err := s.userByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = isAdmin
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
