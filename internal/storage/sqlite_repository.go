package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) (*SQLiteRepository, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLiteRepository{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// OpenSQLite opens (or creates) the cache database at path and applies
// migrations. A single connection keeps cache writes serialized.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	repo, err := NewSQLiteRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) OpenGeneration(ctx context.Context, name string) error {
	if err := checkGeneration(name); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `INSERT OR IGNORE INTO cache_generations (name, created_at) VALUES (?, ?)`,
		name, mustTime(r.now()))
	return err
}

func (r *SQLiteRepository) Generations(ctx context.Context) ([]Generation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT g.name, g.created_at, COUNT(e.url)
		FROM cache_generations g
		LEFT JOIN cache_entries e ON e.generation = g.name
		GROUP BY g.name, g.created_at
		ORDER BY g.created_at ASC, g.name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Generation, 0)
	for rows.Next() {
		var g Generation
		var created string
		if err := rows.Scan(&g.Name, &created, &g.Entries); err != nil {
			return nil, err
		}
		createdAt, err := parseRequiredTime(created)
		if err != nil {
			return nil, err
		}
		g.CreatedAt = createdAt
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteGeneration(ctx context.Context, name string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cache_entries WHERE generation = ?`, name); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM cache_generations WHERE name = ?`, name)
	if err != nil {
		return err
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *SQLiteRepository) Match(ctx context.Context, generation, url string) (CachedResponse, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT generation, url, status, header, body, stored_at
		FROM cache_entries WHERE generation = ? AND url = ?`, generation, url)
	item, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CachedResponse{}, ErrNotFound
		}
		return CachedResponse{}, err
	}
	return item, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, in CachedResponse) error {
	return r.PutAll(ctx, in.Generation, []CachedResponse{in})
}

// PutAll stores every entry or none of them.
func (r *SQLiteRepository) PutAll(ctx context.Context, generation string, in []CachedResponse) error {
	if err := checkGeneration(generation); err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := r.now()
	if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO cache_generations (name, created_at) VALUES (?, ?)`,
		generation, mustTime(now)); err != nil {
		return err
	}
	for _, entry := range in {
		if strings.TrimSpace(entry.URL) == "" {
			return errors.New("storage: cache entry url is required")
		}
		header, err := encodeHeader(entry.Header)
		if err != nil {
			return err
		}
		storedAt := entry.StoredAt
		if storedAt.IsZero() {
			storedAt = now
		}
		body := entry.Body
		if body == nil {
			body = []byte{}
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cache_entries (generation, url, status, header, body, stored_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(generation, url) DO UPDATE SET
				status = excluded.status,
				header = excluded.header,
				body = excluded.body,
				stored_at = excluded.stored_at`,
			generation, entry.URL, entry.StatusCode, header, body, mustTime(storedAt),
		); err != nil {
			return fmt.Errorf("put %s: %w", entry.URL, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, generation string, filter EntryListFilter) ([]CachedResponse, error) {
	query := `SELECT generation, url, status, header, body, stored_at FROM cache_entries WHERE generation = ? ORDER BY url ASC`
	args := []any{generation}
	query += applyPagination(&args, filter.Limit, filter.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]CachedResponse, 0)
	for rows.Next() {
		item, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func checkGeneration(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidGeneration
	}
	return nil
}

func mustTime(v time.Time) string {
	return v.UTC().Format(sqliteTimeLayout)
}

func parseRequiredTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func encodeHeader(h http.Header) (string, error) {
	if h == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode header: %w", err)
	}
	return string(raw), nil
}

func decodeHeader(raw string) (http.Header, error) {
	h := http.Header{}
	if strings.TrimSpace(raw) == "" {
		return h, nil
	}
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func applyPagination(args *[]any, limit, offset int) string {
	if limit <= 0 {
		if offset > 0 {
			*args = append(*args, offset)
			return ` LIMIT -1 OFFSET ?`
		}
		return ""
	}
	*args = append(*args, limit)
	if offset > 0 {
		*args = append(*args, offset)
		return ` LIMIT ? OFFSET ?`
	}
	return ` LIMIT ?`
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (CachedResponse, error) {
	var out CachedResponse
	var header string
	var stored string
	if err := s.Scan(&out.Generation, &out.URL, &out.StatusCode, &header, &out.Body, &stored); err != nil {
		return CachedResponse{}, err
	}
	h, err := decodeHeader(header)
	if err != nil {
		return CachedResponse{}, err
	}
	storedAt, err := parseRequiredTime(stored)
	if err != nil {
		return CachedResponse{}, err
	}
	out.Header = h
	out.StoredAt = storedAt
	return out, nil
}

func checkRowsAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
