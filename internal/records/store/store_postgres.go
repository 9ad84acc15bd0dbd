package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"lostfound/internal/records/models"
	"lostfound/pkg/platform/sentinel"
)

const pgUniqueViolation = "23505"

// Schema creates the records table and its indexes. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS records (
	id             TEXT PRIMARY KEY,
	category       TEXT NOT NULL,
	fields         JSONB NOT NULL DEFAULT '{}'::jsonb,
	unique_key     TEXT,
	doc_location   TEXT NOT NULL,
	finder_contact TEXT NOT NULL,
	status         TEXT NOT NULL,
	claimed        BOOLEAN NOT NULL DEFAULT FALSE,
	claimed_at     TIMESTAMPTZ,
	expire_at      TIMESTAMPTZ,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS records_category_unique_key
	ON records (category, unique_key) WHERE unique_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS records_category_claimed_created
	ON records (category, claimed, created_at);
CREATE INDEX IF NOT EXISTS records_expire_at
	ON records (expire_at) WHERE claimed;
`

const recordColumns = `id, category, fields, unique_key, doc_location, finder_contact, status,
	claimed, claimed_at, expire_at, created_at, updated_at`

// PostgresStore persists records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("migrate records schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, r *models.Record) error {
	fields, err := json.Marshal(r.Fields)
	if err != nil {
		return fmt.Errorf("marshal record fields: %w", err)
	}
	query := `
		INSERT INTO records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		r.ID, string(r.Category), string(fields), nullString(r.UniqueKey), r.DocLocation, r.FinderContact,
		string(r.Status), r.Claimed, r.ClaimedAt, r.ExpireAt, r.CreatedAt, r.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindOne(ctx context.Context, f Filter) (*models.Record, error) {
	where, args, err := pgWhere(f, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + where + ` ORDER BY created_at, id LIMIT 1`
	r, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Find(ctx context.Context, f Filter, limit int) ([]*models.Record, error) {
	where, args, err := pgWhere(f, 1)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + recordColumns + ` FROM records WHERE ` + where + ` ORDER BY created_at, id`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Record, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

// ConditionalUpdate locks the oldest matching row and re-checks the filter in
// the outer WHERE, so a concurrent writer that changed the row in between
// leaves zero rows affected.
func (s *PostgresStore) ConditionalUpdate(ctx context.Context, f Filter, u Update) (*models.Record, error) {
	set, args := pgSet(u)
	where, whereArgs, err := pgWhere(f, len(args)+1)
	if err != nil {
		return nil, err
	}
	args = append(args, whereArgs...)
	query := `
		UPDATE records SET ` + set + `
		WHERE id = (
			SELECT id FROM records WHERE ` + where + `
			ORDER BY created_at, id LIMIT 1
			FOR UPDATE
		) AND ` + where + `
		RETURNING ` + recordColumns

	r, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("conditional update record: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE claimed AND expire_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired records: %w", err)
	}
	return n, nil
}

func pgWhere(f Filter, next int) (string, []any, error) {
	conds := make([]string, 0, 6)
	args := make([]any, 0, 6)
	add := func(cond string, arg any) {
		conds = append(conds, fmt.Sprintf(cond, next))
		args = append(args, arg)
		next++
	}
	if f.Category != "" {
		add("category = $%d", string(f.Category))
	}
	if f.ID != "" {
		add("id = $%d", f.ID)
	}
	if f.UniqueKey != "" {
		add("unique_key = $%d", f.UniqueKey)
	}
	if f.FinderContact != "" {
		add("finder_contact = $%d", f.FinderContact)
	}
	if f.Claimed != nil {
		add("claimed = $%d", *f.Claimed)
	}
	if len(f.Fields) > 0 {
		fields, err := json.Marshal(f.Fields)
		if err != nil {
			return "", nil, fmt.Errorf("marshal filter fields: %w", err)
		}
		add("fields @> $%d::jsonb", string(fields))
	}
	if len(conds) == 0 {
		return "TRUE", args, nil
	}
	return strings.Join(conds, " AND "), args, nil
}

func pgSet(u Update) (string, []any) {
	sets := []string{"updated_at = $1"}
	args := []any{u.At}
	add := func(col string, arg any) {
		args = append(args, arg)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if u.DocLocation != nil {
		add("doc_location", *u.DocLocation)
	}
	if u.FinderContact != nil {
		add("finder_contact", *u.FinderContact)
	}
	if u.Claim != nil {
		add("claimed_at", u.Claim.At)
		add("expire_at", u.Claim.ExpireAt)
		add("status", string(models.StatusFound))
		sets = append(sets, "claimed = TRUE")
	}
	return strings.Join(sets, ", "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		r         models.Record
		category  string
		status    string
		fields    []byte
		uniqueKey sql.NullString
		claimedAt sql.NullTime
		expireAt  sql.NullTime
	)
	err := row.Scan(&r.ID, &category, &fields, &uniqueKey, &r.DocLocation, &r.FinderContact, &status,
		&r.Claimed, &claimedAt, &expireAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Category = models.Category(category)
	r.Status = models.Status(status)
	r.UniqueKey = uniqueKey.String
	if err := json.Unmarshal(fields, &r.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal record fields: %w", err)
	}
	if claimedAt.Valid {
		t := claimedAt.Time
		r.ClaimedAt = &t
	}
	if expireAt.Valid {
		t := expireAt.Time
		r.ExpireAt = &t
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
