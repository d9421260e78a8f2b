package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/audexdev/IdeaSpark/internal/config"
)

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository connects to postgres, ensures the schema, and
// returns a ready repository.
func NewPostgresRepository(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresRepository, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &PostgresRepository{pool: pool}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *PostgresRepository) ensureSchema(ctx context.Context) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS idea_history (
			id          BIGSERIAL PRIMARY KEY,
			device_hash TEXT        NOT NULL,
			category    TEXT        NOT NULL,
			idea_text   TEXT        NOT NULL,
			lang        TEXT        NOT NULL DEFAULT '',
			bookmarked  BOOLEAN     NOT NULL DEFAULT FALSE,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_idea_history_device
			ON idea_history (device_hash, created_at DESC);
	`
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to ensure history schema: %w", err)
	}
	return nil
}

// Save stores a new entry.
func (r *PostgresRepository) Save(ctx context.Context, entry *Entry) error {
	query := `
		INSERT INTO idea_history (device_hash, category, idea_text, lang)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		entry.DeviceHash, entry.Category, entry.IdeaText, entry.Lang,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

// List returns the most recent entries for a device hash.
func (r *PostgresRepository) List(ctx context.Context, deviceHash string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, device_hash, category, idea_text, lang, bookmarked, created_at
		FROM idea_history
		WHERE device_hash = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, deviceHash, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.DeviceHash, &e.Category, &e.IdeaText, &e.Lang, &e.Bookmarked, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history rows: %w", err)
	}
	return entries, nil
}

// ToggleBookmark flips the bookmark flag on an owned entry.
func (r *PostgresRepository) ToggleBookmark(ctx context.Context, id int64, deviceHash string) (bool, error) {
	query := `
		UPDATE idea_history
		SET bookmarked = NOT bookmarked
		WHERE id = $1 AND device_hash = $2
		RETURNING bookmarked
	`

	var bookmarked bool
	err := r.pool.QueryRow(ctx, query, id, deviceHash).Scan(&bookmarked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle bookmark: %w", err)
	}
	return bookmarked, nil
}

// HealthCheck verifies connectivity.
func (r *PostgresRepository) HealthCheck(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close releases the connection pool.
func (r *PostgresRepository) Close() {
	r.pool.Close()
}
