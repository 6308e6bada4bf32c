package services

import (
	"errors"
	"fmt"

	"referral-rewards/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSelfReferral      = errors.New("cannot use your own referral code")
	ErrAlreadyRedeemed   = errors.New("referral code already redeemed")
	ErrAlreadyReferred   = errors.New("user already has a referrer")
	ErrInvalidTransition = errors.New("invalid reward status transition")
	ErrDuplicateConfig   = errors.New("active reward config already exists")
	ErrInvalidInput      = errors.New("invalid input")
)

// NotFoundError names the missing resource
type NotFoundError struct {
	Resource string
	Key      interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// TransitionError describes a rejected reward status change
type TransitionError struct {
	RewardID uint
	From     models.RewardStatus
	To       models.RewardStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("reward %d cannot move from %s to %s", e.RewardID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsClientError reports whether err was caused by the caller's request
func IsClientError(err error) bool {
	return errors.Is(err, ErrSelfReferral) ||
		errors.Is(err, ErrAlreadyRedeemed) ||
		errors.Is(err, ErrAlreadyReferred) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDuplicateConfig) ||
		errors.Is(err, ErrInvalidInput)
}
