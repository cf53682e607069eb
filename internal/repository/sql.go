package repository

import (
	"context"
	"database/sql"
	"fmt"

	"painsignal/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const painPointColumns = `id, description, industry, sentiment, confidence_score,
	confidence_explanation, created_at, is_test, is_anonymous`

// NewSQLStore builds the collections on top of an open, migrated database.
func NewSQLStore(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{
		Primary:  NewPainPointRepository(db, PrimaryCollection, logger),
		Public:   NewPainPointRepository(db, PublicCollection, logger),
		Waitlist: NewWaitlistRepository(db, logger),
		close:    db.Close,
	}
}

type painPointRepository struct {
	db     *sqlx.DB
	table  string
	logger *zap.Logger
}

// NewPainPointRepository returns a store backed by one SQL table.
func NewPainPointRepository(db *sqlx.DB, table string, logger *zap.Logger) PainPointStore {
	return &painPointRepository{db: db, table: table, logger: logger}
}

func (r *painPointRepository) Insert(ctx context.Context, rec *models.PainPointRecord) error {
	id := uuid.NewString()

	query := r.db.Rebind(`INSERT INTO ` + r.table + ` (` + painPointColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		id,
		rec.Description,
		rec.Industry,
		rec.Sentiment,
		rec.ConfidenceScore,
		rec.ConfidenceExplanation,
		rec.CreatedAt,
		rec.IsTest,
		rec.IsAnonymous,
	)
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.table, err)
	}

	rec.ID = id
	return nil
}

func (r *painPointRepository) List(ctx context.Context, opts ListOptions) ([]*models.PainPointRecord, error) {
	query := `SELECT ` + painPointColumns + ` FROM ` + r.table
	var args []interface{}

	if !opts.IncludeTest {
		query += ` WHERE is_test = ?`
		args = append(args, false)
	}

	query += ` ORDER BY created_at DESC, id DESC`

	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	records := []*models.PainPointRecord{}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}

	return records, nil
}

func (r *painPointRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM `+r.table); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.table, err)
	}
	return count, nil
}

func (r *painPointRepository) Oldest(ctx context.Context) (*models.PainPointRecord, error) {
	var rec models.PainPointRecord
	query := `SELECT ` + painPointColumns + ` FROM ` + r.table + ` ORDER BY created_at ASC, id ASC LIMIT 1`

	err := r.db.GetContext(ctx, &rec, query)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find oldest in %s: %w", r.table, err)
	}
	return &rec, nil
}

func (r *painPointRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM ` + r.table + ` WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete %s from %s: %w", id, r.table, err)
	}
	return nil
}

type waitlistRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewWaitlistRepository returns the SQL waitlist store.
func NewWaitlistRepository(db *sqlx.DB, logger *zap.Logger) WaitlistStore {
	return &waitlistRepository{db: db, logger: logger}
}

func (r *waitlistRepository) FindByEmail(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	var entry models.WaitlistEntry
	query := r.db.Rebind(`SELECT id, email, signed_up_at FROM waitlist WHERE email = ? LIMIT 1`)

	err := r.db.GetContext(ctx, &entry, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query waitlist: %w", err)
	}
	return &entry, nil
}

func (r *waitlistRepository) Insert(ctx context.Context, entry *models.WaitlistEntry) error {
	id := uuid.NewString()
	query := r.db.Rebind(`INSERT INTO waitlist (id, email, signed_up_at) VALUES (?, ?, ?)`)

	if _, err := r.db.ExecContext(ctx, query, id, entry.Email, entry.SignedUpAt); err != nil {
		return fmt.Errorf("failed to insert waitlist entry: %w", err)
	}

	entry.ID = id
	return nil
}
