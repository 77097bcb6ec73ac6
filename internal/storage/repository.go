// Package storage persists movements in a local SQLite journal before
// they are synced to the external ledger.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"movimenti/internal/core"
)

var ErrNotFound = errors.New("movement not found")

// Entry is one journal row.
type Entry struct {
	ID       int64
	Movement core.Movement
	Synced   bool
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements ledger.Appender: the journal row ID is the row ref.
func (r *Repository) Append(ctx context.Context, m core.Movement) (string, error) {
	if err := m.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	cents := m.Amount.Round(2).Shift(2).IntPart()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO movements (amount_cents, entry_date, description, category, class)
		 VALUES (?, ?, ?, ?, ?)`,
		cents, m.Date, m.Description, m.Category, string(m.Class))
	if err != nil {
		return "", fmt.Errorf("insert movement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "movement journaled",
		"id", id, "amount_cents", cents, "category", m.Category, "class", string(m.Class))

	return strconv.FormatInt(id, 10), nil
}

// Get returns one journal entry by ID.
func (r *Repository) Get(ctx context.Context, id int64) (Entry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, amount_cents, entry_date, description, category, class, synced_at IS NOT NULL
		 FROM movements WHERE id = ?`, id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("get movement %d: %w", id, err)
	}
	return e, nil
}

// ListUnsynced returns up to limit journal entries not yet pushed to the
// external ledger, oldest first.
func (r *Repository) ListUnsynced(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, amount_cents, entry_date, description, category, class, synced_at IS NOT NULL
		 FROM movements WHERE synced_at IS NULL ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced movements: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkSynced stamps the entry as pushed to the external ledger.
func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE movements SET synced_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark movement %d synced: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (Entry, error) {
	var (
		e     Entry
		cents int64
		class string
	)
	if err := s.Scan(&e.ID, &cents, &e.Movement.Date, &e.Movement.Description,
		&e.Movement.Category, &class, &e.Synced); err != nil {
		return Entry{}, err
	}
	e.Movement.Amount = decimal.New(cents, -2)
	e.Movement.Class = core.Class(class)
	return e, nil
}
