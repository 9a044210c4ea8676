package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"luxdrive/internal/db"
	"luxdrive/internal/models"
)

// hashCost is the bcrypt work factor for new passwords.
var hashCost = bcrypt.DefaultCost

// userService implements the UserService interface.
type userService struct {
	userRepo db.UserRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewUserService creates a new UserService instance.
func NewUserService(userRepo db.UserRepository, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		logger:   logger,
		now:      time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp hashes the password and stores a new user under a fresh user_<ms> ID.
func (s *userService) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now().UTC()
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		user := &models.User{
			ID:        newID("user", now, attempt),
			Email:     email,
			Password:  string(hash),
			CreatedAt: now,
		}
		created, err := s.userRepo.Create(ctx, user)
		if err == nil {
			s.logger.Info("User signed up", zap.String("userID", created.ID))
			return created, nil
		}
		if !errors.Is(err, db.ErrDuplicate) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// Either the email was taken concurrently or the ID collided.
		if _, lookupErr := s.userRepo.FindByEmail(ctx, email); lookupErr == nil {
			return nil, ErrEmailExists
		}
	}
	return nil, fmt.Errorf("failed to allocate a user ID after %d attempts", maxIDAttempts)
}

// SignIn verifies password against the stored bcrypt hash. Unknown emails and
// wrong passwords fail the same way.
func (s *userService) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
