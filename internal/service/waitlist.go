package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"painsignal/internal/metrics"
	"painsignal/internal/models"
	"painsignal/internal/repository"

	"go.uber.org/zap"
)

// ErrDuplicate is returned when an email is already on the waitlist.
var ErrDuplicate = errors.New("email is already on the waitlist")

// WaitlistService manages waitlist signups.
type WaitlistService struct {
	store  repository.WaitlistStore
	logger *zap.Logger
	now    func() time.Time
}

// NewWaitlistService creates a new waitlist service.
func NewWaitlistService(store repository.WaitlistStore, logger *zap.Logger) *WaitlistService {
	return &WaitlistService{store: store, logger: logger, now: time.Now}
}

// Join adds an email to the waitlist. Uniqueness relies on a lookup before
// the insert, so two simultaneous joins for one address can both succeed.
func (s *WaitlistService) Join(ctx context.Context, req models.WaitlistRequest) (*models.WaitlistEntry, error) {
	if req.Email == nil {
		metrics.WaitlistSignups.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	email := models.NormalizeEmail(*req.Email)
	if !models.ValidEmail(email) {
		metrics.WaitlistSignups.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: invalid email address", ErrValidation)
	}

	existing, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if existing != nil {
		metrics.WaitlistSignups.WithLabelValues("duplicate").Inc()
		return nil, ErrDuplicate
	}

	entry := &models.WaitlistEntry{
		Email:      email,
		SignedUpAt: models.FormatTimestamp(s.now()),
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	metrics.WaitlistSignups.WithLabelValues("ok").Inc()
	s.logger.Info("Waitlist signup", zap.String("id", entry.ID))
	return entry, nil
}

// Find looks up an entry by email after normalizing it. It returns nil, nil
// when the address is not on the list.
func (s *WaitlistService) Find(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	}

	entry, err := s.store.FindByEmail(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return entry, nil
}
