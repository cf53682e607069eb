package repository

import (
	"context"
	"fmt"

	"painsignal/internal/config"
	"painsignal/internal/models"

	"go.uber.org/zap"
)

// Collection names shared by every backend.
const (
	PrimaryCollection  = "painpoints"
	PublicCollection   = "public_painpoints"
	WaitlistCollection = "waitlist"
)

// ListOptions filters and bounds a listing.
type ListOptions struct {
	IncludeTest bool
	Limit       int // 0 means no limit
}

// PainPointStore is one collection of classified pain points.
type PainPointStore interface {
	// Insert writes rec and sets rec.ID to the store-assigned id.
	Insert(ctx context.Context, rec *models.PainPointRecord) error
	// List returns records newest first.
	List(ctx context.Context, opts ListOptions) ([]*models.PainPointRecord, error)
	Count(ctx context.Context) (int64, error)
	// Oldest returns nil, nil for an empty collection.
	Oldest(ctx context.Context) (*models.PainPointRecord, error)
	// Delete is a no-op for unknown ids.
	Delete(ctx context.Context, id string) error
}

// WaitlistStore holds waitlist signups.
type WaitlistStore interface {
	// FindByEmail returns nil, nil when no entry exists.
	FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error)
	Insert(ctx context.Context, entry *models.WaitlistEntry) error
}

// Store groups the collections of one backend.
type Store struct {
	Primary  PainPointStore
	Public   PainPointStore
	Waitlist WaitlistStore

	close func() error
}

// Close releases the backend connection.
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// Open connects to the configured backend. SQL backends are migrated first.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	switch cfg.Database.Type {
	case config.DatabaseSQLite, config.DatabasePostgres:
		db, err := OpenSQL(cfg.Database.Type, cfg.Database.Path, logger)
		if err != nil {
			return nil, err
		}
		if err := MigrateDB(db, cfg.Database.Type, logger); err != nil {
			_ = db.Close()
			return nil, err
		}
		return NewSQLStore(db, logger), nil
	case config.DatabaseMongo:
		return OpenMongo(ctx, cfg.Database.Path, cfg.Database.Name, logger)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Database.Type)
	}
}
