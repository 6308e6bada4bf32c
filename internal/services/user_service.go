package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"referral-rewards/internal/models"
	"referral-rewards/internal/repository"
)

const MaxHandleLength = 64

// Clock supplies timestamps for created_at, used_at and credited_at
type Clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

// UserService maps external handles to stable user records
type UserService struct {
	repo *repository.Repository
}

// NewUserService creates a new UserService
func NewUserService(repo *repository.Repository) *UserService {
	return &UserService{repo: repo}
}

// NormalizeHandle trims a handle and checks its length
func NormalizeHandle(handle string) (string, error) {
	h := strings.TrimSpace(handle)
	if h == "" {
		return "", invalidInput("handle is required")
	}
	if len(h) > MaxHandleLength {
		return "", invalidInput("handle longer than %d characters", MaxHandleLength)
	}
	return h, nil
}

// ResolveOrCreate returns the user for handle, creating it on first sight.
// Concurrent first-sight calls for one handle all return the same row.
func (s *UserService) ResolveOrCreate(ctx context.Context, handle string) (*models.User, error) {
	h, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByHandle(ctx, h)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup user %q: %w", h, err)
	}

	candidate := &models.User{Handle: h}
	created, err := s.repo.InsertUserIfAbsent(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("create user %q: %w", h, err)
	}
	if created {
		log.Printf("New user created: handle=%s (ID: %d)", h, candidate.ID)
		return candidate, nil
	}

	// Another caller inserted the handle between our lookup and insert
	user, err = s.repo.GetUserByHandle(ctx, h)
	if err != nil {
		return nil, fmt.Errorf("lookup user %q after conflict: %w", h, err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "user", Key: userID}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByHandle retrieves a user by handle without creating it
func (s *UserService) GetUserByHandle(ctx context.Context, handle string) (*models.User, error) {
	h, err := NormalizeHandle(handle)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetUserByHandle(ctx, h)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "user", Key: h}
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
