package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/vschac/CSDaily/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct{ db *sql.DB }

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Reasonable pooling for SQLite; it's a single-writer engine.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

const settingsColumns = `uid, service_enabled, preferred_time, selected_topics,
       phone_number, created_at, updated_at, last_saved, next_send_at, last_sent_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*domain.UserSettings, error) {
	var (
		uid        string
		enabledInt int
		prefTime   string
		topicsRaw  string
		phoneNS    sql.NullString
		createdAt  int64
		updatedAt  int64
		lastSaved  int64
		nextNS     sql.NullInt64
		lastNS     sql.NullInt64
	)

	if err := row.Scan(
		&uid, &enabledInt, &prefTime, &topicsRaw, &phoneNS,
		&createdAt, &updatedAt, &lastSaved, &nextNS, &lastNS,
	); err != nil {
		return nil, err
	}

	topics, err := decodeTopics(topicsRaw)
	if err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}

	return &domain.UserSettings{
		UID:            uid,
		ServiceEnabled: enabledInt != 0,
		PreferredTime:  prefTime,
		SelectedTopics: topics,
		PhoneNumber:    fromNullString(phoneNS),
		CreatedAt:      time.Unix(createdAt, 0).UTC(),
		UpdatedAt:      time.Unix(updatedAt, 0).UTC(),
		LastSaved:      time.Unix(lastSaved, 0).UTC(),
		NextSendAt:     fromNullInt64(nextNS),
		LastSentAt:     fromNullInt64(lastNS),
	}, nil
}

// Load returns the settings document for uid, or ErrNotFound.
func (r *SQLiteRepo) Load(ctx context.Context, uid string) (*domain.UserSettings, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+settingsColumns+`
		FROM user_settings
		WHERE uid = ?`,
		uid,
	)
	s, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// CreateDefault inserts the default document for uid only if none exists.
// The insert is conditional at the storage layer, so two clients racing on
// first sign-in produce exactly one document; the loser gets ErrAlreadyExists.
func (r *SQLiteRepo) CreateDefault(ctx context.Context, uid string) (*domain.UserSettings, error) {
	topics := domain.DefaultTopics()
	topicsRaw, err := encodeTopics(topics)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO user_settings (
			uid, service_enabled, preferred_time, selected_topics,
			created_at, updated_at, last_saved
		) VALUES (?, 0, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO NOTHING`,
		uid, domain.DefaultPreferredTime, topicsRaw,
		now.Unix(), now.Unix(), now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAlreadyExists
	}

	return &domain.UserSettings{
		UID:            uid,
		ServiceEnabled: false,
		PreferredTime:  domain.DefaultPreferredTime,
		SelectedTopics: topics,
		CreatedAt:      time.Unix(now.Unix(), 0).UTC(),
		UpdatedAt:      time.Unix(now.Unix(), 0).UTC(),
		LastSaved:      time.Unix(now.Unix(), 0).UTC(),
	}, nil
}

// Merge applies a partial update to an existing document. Timestamp columns
// are stamped here, never taken from the caller. A patch that touches
// delivery settings clears next_send_at so the scheduler recomputes it.
func (r *SQLiteRepo) Merge(ctx context.Context, uid string, p Patch) error {
	if p.Empty() {
		return nil
	}

	now := time.Now().UTC().Unix()
	sets := []string{"updated_at = ?", "last_saved = ?"}
	args := []any{now, now}

	if p.ServiceEnabled != nil {
		sets = append(sets, "service_enabled = ?")
		args = append(args, boolToInt(*p.ServiceEnabled))
	}
	if p.PreferredTime != nil {
		sets = append(sets, "preferred_time = ?")
		args = append(args, *p.PreferredTime)
	}
	if p.SelectedTopics != nil {
		topicsRaw, err := encodeTopics(p.SelectedTopics)
		if err != nil {
			return err
		}
		sets = append(sets, "selected_topics = ?")
		args = append(args, topicsRaw)
	}
	if p.PhoneNumber != nil {
		sets = append(sets, "phone_number = ?")
		args = append(args, toNullString(p.PhoneNumber))
	}
	if p.ServiceEnabled != nil || p.PreferredTime != nil {
		sets = append(sets, "next_send_at = NULL")
	}

	args = append(args, uid)
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_settings SET "+strings.Join(sets, ", ")+" WHERE uid = ?",
		args...,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDue returns up to `limit` enabled, verified users whose next_send_at
// is <= now, ordered by next_send_at ascending.
func (r *SQLiteRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.UserSettings, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+settingsColumns+`
		FROM user_settings
		WHERE service_enabled = 1
		  AND phone_number IS NOT NULL
		  AND next_send_at IS NOT NULL
		  AND next_send_at <= ?
		ORDER BY next_send_at ASC
		LIMIT ?`,
		now.UTC().Unix(), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSettings(rows)
}

// ListUnscheduled returns up to `limit` enabled, verified users with no
// next_send_at on record.
func (r *SQLiteRepo) ListUnscheduled(ctx context.Context, limit int) ([]domain.UserSettings, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+settingsColumns+`
		FROM user_settings
		WHERE service_enabled = 1
		  AND phone_number IS NOT NULL
		  AND next_send_at IS NULL
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSettings(rows)
}

func collectSettings(rows *sql.Rows) ([]domain.UserSettings, error) {
	var res []domain.UserSettings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// SetSchedule updates next_send_at and (optionally) last_sent_at for a user.
func (r *SQLiteRepo) SetSchedule(ctx context.Context, uid string, next time.Time, last *time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE user_settings
		SET next_send_at = ?, last_sent_at = ?
		WHERE uid = ?`,
		next.UTC().Unix(), toNullInt64(last), uid,
	)
	return err
}

// SeedFacts inserts the fact corpus, skipping ids already present.
func (r *SQLiteRepo) SeedFacts(ctx context.Context, facts []domain.Fact) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Unix()
	for _, f := range facts {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO facts (id, topic, term, definition, difficulty, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Topic, f.Term, f.Definition, f.Difficulty, now,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// PickFact returns a random fact from any of the given topics, or ErrNoFact.
func (r *SQLiteRepo) PickFact(ctx context.Context, topics []string) (*domain.Fact, error) {
	if len(topics) == 0 {
		return nil, ErrNoFact
	}

	placeholders := strings.TrimRight(strings.Repeat("?,", len(topics)), ",")
	args := make([]any, len(topics))
	for i, t := range topics {
		args[i] = t
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT id, topic, term, definition, difficulty
		FROM facts
		WHERE topic IN (`+placeholders+`)
		ORDER BY RANDOM()
		LIMIT 1`,
		args...,
	)

	var f domain.Fact
	if err := row.Scan(&f.ID, &f.Topic, &f.Term, &f.Definition, &f.Difficulty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoFact
		}
		return nil, err
	}
	return &f, nil
}
