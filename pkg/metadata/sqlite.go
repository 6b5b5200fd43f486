package metadata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore persists episode records in a local SQLite database. It
// satisfies Store and is the adapter used by the agent harness; tests
// and batch tooling share the same file-backed database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

const episodeColumns = `id, title, channel_id, duration_millis, additional_json,
	processing_done, deleted_at, created_at`

const schema = `
CREATE TABLE IF NOT EXISTS episodes (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	channel_id      TEXT NOT NULL DEFAULT '',
	duration_millis INTEGER NOT NULL DEFAULT 0,
	additional_json TEXT,
	processing_done INTEGER NOT NULL DEFAULT 0,
	deleted_at      TEXT,
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_episodes_created_at ON episodes (created_at);
`

// OpenSQLite initializes or connects to the episode database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *SQLiteStore) execWithRetry(ctx context.Context, query string, args ...interface{}) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Insert stores a new record. A zero CreatedAt is stamped with the
// current time.
func (s *SQLiteStore) Insert(ctx context.Context, record *EpisodeRecord) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.ID == "" {
		return errors.New("record id is empty")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	additionalJSON, err := marshalAdditional(record.AdditionalData)
	if err != nil {
		return err
	}

	if err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (`+episodeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Title,
		record.ChannelID,
		record.DurationMillis,
		additionalJSON,
		boolToInt(record.ProcessingDone),
		nullableTime(record.DeletedAt),
		record.CreatedAt.Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("insert episode: %w", err)
	}
	return nil
}

// GetByID fetches an episode record by identifier. Unknown ids return
// (nil, nil).
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*EpisodeRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	record, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return record, nil
}

// ListRecent returns at most limit episode ids, newest first, skipping
// soft-deleted rows.
func (s *SQLiteStore) ListRecent(ctx context.Context, limit int, createdAfter *time.Time) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := `SELECT id FROM episodes WHERE deleted_at IS NULL`
	args := []interface{}{}
	if createdAfter != nil {
		query += ` AND created_at > ?`
		args = append(args, createdAfter.UTC().Format(time.RFC3339Nano))
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan episode id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return ids, nil
}

// Updatable columns keyed by the field names callers pass in.
var updateColumns = map[string]string{
	"title":          "title",
	"channelId":      "channel_id",
	"durationMillis": "duration_millis",
	"processingDone": "processing_done",
	"additionalData": "additional_json",
}

// Update applies a partial field map to an existing record. Unknown
// field names are rejected.
func (s *SQLiteStore) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}

	setClauses := make([]string, 0, len(fields))
	args := make([]interface{}, 0, len(fields)+1)
	for name, value := range fields {
		column, ok := updateColumns[name]
		if !ok {
			return fmt.Errorf("unknown episode field %q", name)
		}
		switch name {
		case "additionalData":
			additional, ok := value.(map[string]interface{})
			if !ok {
				return fmt.Errorf("field %q must be a map", name)
			}
			encoded, err := marshalAdditional(additional)
			if err != nil {
				return err
			}
			value = encoded
		case "processingDone":
			flag, ok := value.(bool)
			if !ok {
				return fmt.Errorf("field %q must be a bool", name)
			}
			value = boolToInt(flag)
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	args = append(args, id)

	err := retryOnBusy(ctx, func() error {
		res, execErr := s.db.ExecContext(ctx,
			`UPDATE episodes SET `+strings.Join(setClauses, ", ")+` WHERE id = ?`, args...)
		if execErr != nil {
			return execErr
		}
		affected, affErr := res.RowsAffected()
		if affErr != nil {
			return affErr
		}
		if affected == 0 {
			return fmt.Errorf("episode %s not found", id)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	return nil
}

// SoftDelete marks a record deleted without removing the row.
func (s *SQLiteStore) SoftDelete(ctx context.Context, id string) error {
	if err := s.execWithRetry(
		ctx,
		`UPDATE episodes SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("soft delete episode: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEpisode(row rowScanner) (*EpisodeRecord, error) {
	var (
		record         EpisodeRecord
		additionalJSON sql.NullString
		processingDone int
		deletedAt      sql.NullString
		createdAt      string
	)
	if err := row.Scan(
		&record.ID,
		&record.Title,
		&record.ChannelID,
		&record.DurationMillis,
		&additionalJSON,
		&processingDone,
		&deletedAt,
		&createdAt,
	); err != nil {
		return nil, err
	}

	record.ProcessingDone = processingDone != 0
	if additionalJSON.Valid && additionalJSON.String != "" {
		if err := json.Unmarshal([]byte(additionalJSON.String), &record.AdditionalData); err != nil {
			return nil, fmt.Errorf("decode additional data: %w", err)
		}
	}
	if deletedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, deletedAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse deleted_at: %w", err)
		}
		record.DeletedAt = &t
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	record.CreatedAt = t
	return &record, nil
}

func marshalAdditional(additional map[string]interface{}) (interface{}, error) {
	if additional == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(additional)
	if err != nil {
		return nil, fmt.Errorf("marshal additional data: %w", err)
	}
	return string(encoded), nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
