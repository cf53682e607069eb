package service

import (
	"context"
	"fmt"

	"painsignal/internal/metrics"
	"painsignal/internal/models"
	"painsignal/internal/repository"

	"go.uber.org/zap"
)

// BoundedPublicStore keeps the public collection near a maximum size by
// deleting the oldest entry before each insert.
//
// Count, delete and insert are separate store calls. Concurrent inserts at
// the boundary can each delete the same oldest entry, so the size is an
// approximate cap that may transiently exceed the maximum.
type BoundedPublicStore struct {
	store  repository.PainPointStore
	logger *zap.Logger
}

// NewBoundedPublicStore wraps the public collection.
func NewBoundedPublicStore(store repository.PainPointStore, logger *zap.Logger) *BoundedPublicStore {
	return &BoundedPublicStore{store: store, logger: logger}
}

// EvictIfFull deletes the single oldest entry when the collection holds at
// least maxEntries records.
func (b *BoundedPublicStore) EvictIfFull(ctx context.Context, maxEntries int) error {
	count, err := b.store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count public entries: %w", err)
	}
	if count < int64(maxEntries) {
		return nil
	}

	oldest, err := b.store.Oldest(ctx)
	if err != nil {
		return fmt.Errorf("find oldest public entry: %w", err)
	}
	if oldest == nil {
		return nil
	}

	if err := b.store.Delete(ctx, oldest.ID); err != nil {
		return fmt.Errorf("evict public entry: %w", err)
	}

	metrics.PublicEvictions.Inc()
	b.logger.Debug("Evicted oldest public entry",
		zap.String("id", oldest.ID),
		zap.String("created_at", oldest.CreatedAt),
		zap.Int64("count", count))
	return nil
}

// Insert writes rec into the public collection.
func (b *BoundedPublicStore) Insert(ctx context.Context, rec *models.PainPointRecord) error {
	return b.store.Insert(ctx, rec)
}
