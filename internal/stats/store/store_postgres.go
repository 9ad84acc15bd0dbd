package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"lostfound/internal/stats/models"
)

// Schema creates the singleton stats table. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS stats (
	id                SMALLINT PRIMARY KEY CHECK (id = 1),
	total_documents   BIGINT NOT NULL DEFAULT 0 CHECK (total_documents >= 0),
	claimed_documents BIGINT NOT NULL DEFAULT 0 CHECK (claimed_documents >= 0)
);
`

// PostgresStore keeps the counters in a single-row table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate stats schema: %w", err)
	}
	return nil
}

var incrementQueries = map[models.CounterName]string{
	models.TotalDocuments: `
		INSERT INTO stats (id, total_documents) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET total_documents = stats.total_documents + EXCLUDED.total_documents
	`,
	models.ClaimedDocuments: `
		INSERT INTO stats (id, claimed_documents) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET claimed_documents = stats.claimed_documents + EXCLUDED.claimed_documents
	`,
}

func (s *PostgresStore) Increment(ctx context.Context, name models.CounterName, delta int64) error {
	query, ok := incrementQueries[name]
	if !ok {
		return fmt.Errorf("unknown counter %q", name)
	}
	if _, err := s.db.ExecContext(ctx, query, delta); err != nil {
		return fmt.Errorf("increment %s: %w", name, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context) (*models.Counters, error) {
	var c models.Counters
	err := s.db.QueryRowContext(ctx, `SELECT total_documents, claimed_documents FROM stats WHERE id = 1`).
		Scan(&c.TotalDocuments, &c.ClaimedDocuments)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.Counters{}, nil
		}
		return nil, fmt.Errorf("get stats: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) Ensure(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `INSERT INTO stats (id) VALUES (1) ON CONFLICT (id) DO NOTHING`); err != nil {
		return fmt.Errorf("ensure stats: %w", err)
	}
	return nil
}
