package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"painsignal/internal/metrics"
	"painsignal/internal/models"
	"painsignal/internal/repository"

	"go.uber.org/zap"
)

var (
	// ErrValidation marks client input that was rejected before any work was done.
	ErrValidation = errors.New("validation failed")
	// ErrPersistence marks a failed store operation.
	ErrPersistence = errors.New("persistence failed")
)

// Classifier produces a complete classification and never fails.
type Classifier interface {
	Classify(ctx context.Context, text string) models.Classification
}

// Notifier receives every record after it has been written.
type Notifier interface {
	Notify(rec *models.PainPointRecord)
}

// IngestionOptions holds the limits applied on the public path.
type IngestionOptions struct {
	MaxPublicEntries     int
	MaxDescriptionLength int
}

// IngestionService validates, classifies and persists submissions.
type IngestionService struct {
	classifier Classifier
	primary    repository.PainPointStore
	public     *BoundedPublicStore
	notifier   Notifier
	opts       IngestionOptions
	logger     *zap.Logger

	now func() time.Time
}

// NewIngestionService creates a new ingestion service. notifier may be nil.
func NewIngestionService(
	classifier Classifier,
	primary repository.PainPointStore,
	public *BoundedPublicStore,
	notifier Notifier,
	opts IngestionOptions,
	logger *zap.Logger,
) *IngestionService {
	if opts.MaxDescriptionLength <= 0 {
		opts.MaxDescriptionLength = 5000
	}
	if opts.MaxPublicEntries <= 0 {
		opts.MaxPublicEntries = 1000
	}
	return &IngestionService{
		classifier: classifier,
		primary:    primary,
		public:     public,
		notifier:   notifier,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// Ingest turns a submission into a persisted record in the target collection.
func (s *IngestionService) Ingest(ctx context.Context, sub models.PainPointSubmission, target models.Target) (*models.PainPointRecord, error) {
	description, err := s.validate(sub, target)
	if err != nil {
		metrics.Ingestions.WithLabelValues(string(target), "invalid").Inc()
		return nil, err
	}

	cls := s.classifier.Classify(ctx, description).Normalized()

	rec := &models.PainPointRecord{
		Description:           description,
		Industry:              cls.Industry,
		Sentiment:             cls.Sentiment,
		ConfidenceScore:       cls.ConfidenceScore,
		ConfidenceExplanation: cls.ConfidenceExplanation,
		CreatedAt:             models.FormatTimestamp(s.now()),
		IsTest:                models.ContainsTestMarker(description),
	}

	switch target {
	case models.TargetPublic:
		rec.IsAnonymous = true
		if err := s.public.EvictIfFull(ctx, s.opts.MaxPublicEntries); err != nil {
			return nil, s.persistenceFailure(target, err)
		}
		if err := s.public.Insert(ctx, rec); err != nil {
			return nil, s.persistenceFailure(target, err)
		}
	default:
		if err := s.primary.Insert(ctx, rec); err != nil {
			return nil, s.persistenceFailure(target, err)
		}
	}

	metrics.Ingestions.WithLabelValues(string(target), "ok").Inc()
	s.logger.Info("Pain point saved",
		zap.String("id", rec.ID),
		zap.String("target", string(target)),
		zap.String("industry", rec.Industry),
		zap.Bool("is_test", rec.IsTest))

	if s.notifier != nil {
		s.notifier.Notify(rec)
	}

	return rec, nil
}

func (s *IngestionService) validate(sub models.PainPointSubmission, target models.Target) (string, error) {
	if target != models.TargetPrimary && target != models.TargetPublic {
		return "", fmt.Errorf("%w: unknown target %q", ErrValidation, target)
	}
	if sub.Description == nil {
		return "", fmt.Errorf("%w: description is required", ErrValidation)
	}

	description := strings.TrimSpace(*sub.Description)
	if description == "" {
		return "", fmt.Errorf("%w: description must not be empty", ErrValidation)
	}

	if target == models.TargetPublic {
		description = truncateRunes(description, s.opts.MaxDescriptionLength)
	}
	return description, nil
}

func (s *IngestionService) persistenceFailure(target models.Target, err error) error {
	metrics.Ingestions.WithLabelValues(string(target), "failed").Inc()
	s.logger.Error("Failed to save pain point", zap.String("target", string(target)), zap.Error(err))
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// List returns primary records newest first. limit <= 0 returns all of them.
func (s *IngestionService) List(ctx context.Context, includeTest bool, limit int) ([]*models.PainPointRecord, error) {
	records, err := s.primary.List(ctx, repository.ListOptions{IncludeTest: includeTest, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	return records, nil
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
