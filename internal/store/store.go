// Package store persists the append-only task version log in SQLite and
// keeps note/image annotations as markdown files with YAML frontmatter.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akarpov/tasklog/internal/task"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

var (
	ErrNotFound = errors.New("not found")
	ErrAllocate = errors.New("key allocation failed")
	timeNow     = func() time.Time { return time.Now() }
)

// allocRetries bounds the count-then-insert retry loop of CreateTask.
const allocRetries = 3

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("db path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(context.Background(), string(schemaSQL)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTask takes already-parsed fields, allocates a daily-sequenced key
// and inserts the first version. The count-then-insert pair is not atomic
// across processes, so a UNIQUE violation on the key table is treated as a
// lost race: re-read the count and retry, a bounded number of times.
func (s *Store) CreateTask(ctx context.Context, chatID string, fields task.Fields, now time.Time) (task.Version, error) {
	start, end := task.DayRange(now)
	for attempt := 0; attempt < allocRetries; attempt++ {
		count, err := s.CountCreatedWithin(ctx, chatID, start, end)
		if err != nil {
			return task.Version{}, err
		}
		v := task.Merge(nil, fields, now)
		v.Key = task.AllocateKey(now, count)
		v.ChatID = chatID
		err = s.createFirstVersion(ctx, v)
		if err == nil {
			return v, nil
		}
		if !isUniqueViolation(err) {
			return task.Version{}, err
		}
	}
	return task.Version{}, fmt.Errorf("%w after %d attempts", ErrAllocate, allocRetries)
}

// AppendEdit reduces the latest version and the parsed edit into the next
// version and appends it. CreatedAt is forced strictly past the previous
// latest so the chain stays totally ordered.
func (s *Store) AppendEdit(ctx context.Context, chatID, key string, fields task.Fields, now time.Time) (task.Version, error) {
	latest, err := s.FindLatest(ctx, chatID, key)
	if err != nil {
		return task.Version{}, err
	}
	if latest == nil {
		return task.Version{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if !now.After(latest.CreatedAt) {
		now = latest.CreatedAt.Add(time.Millisecond)
	}
	v := task.Merge(latest, fields, now)
	if err := s.CreateVersion(ctx, v); err != nil {
		return task.Version{}, err
	}
	return v, nil
}

func (s *Store) createFirstVersion(ctx context.Context, v task.Version) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO task_keys (chat_id, key, created_at) VALUES (?, ?, ?)`,
		v.ChatID, v.Key, v.CreatedAt.UnixNano(),
	); err != nil {
		return err
	}
	if err := insertVersion(ctx, tx, v); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateVersion appends one version row. Versions are never updated or
// deleted.
func (s *Store) CreateVersion(ctx context.Context, v task.Version) error {
	return insertVersion(ctx, s.db, v)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertVersion(ctx context.Context, db execer, v task.Version) error {
	tags, err := marshalList(v.Tags)
	if err != nil {
		return err
	}
	contexts, err := marshalList(v.Contexts)
	if err != nil {
		return err
	}
	projects, err := marshalList(v.Projects)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO task_versions
		 (chat_id, key, content, priority, tags, contexts, projects, status,
		  due_date, snoozed_until, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ChatID, v.Key, v.Content, v.Priority, tags, contexts, projects,
		string(v.Status), nanos(v.DueDate), nanos(v.SnoozedUntil),
		nanos(v.CompletedAt), v.CreatedAt.UnixNano(),
	)
	return err
}

// FindLatest returns the version with the greatest createdAt for
// (chatID, key), or nil when the key has no versions.
func (s *Store) FindLatest(ctx context.Context, chatID, key string) (*task.Version, error) {
	row := s.db.QueryRowContext(ctx,
		versionSelect+` WHERE chat_id = ? AND key = ? ORDER BY created_at DESC LIMIT 1`,
		chatID, key,
	)
	v, err := scanVersion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListHistory returns the full version chain ascending by createdAt.
func (s *Store) ListHistory(ctx context.Context, chatID, key string) ([]task.Version, error) {
	rows, err := s.db.QueryContext(ctx,
		versionSelect+` WHERE chat_id = ? AND key = ? ORDER BY created_at ASC`,
		chatID, key,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectVersions(rows)
}

// ListHistoryForKeys returns the version chains of the given keys, each
// ascending by createdAt. Keys with no versions are absent from the map.
func (s *Store) ListHistoryForKeys(ctx context.Context, chatID string, keys []string) (map[string][]task.Version, error) {
	out := make(map[string][]task.Version, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys)+1)
	args = append(args, chatID)
	for _, k := range keys {
		args = append(args, k)
	}
	rows, err := s.db.QueryContext(ctx,
		versionSelect+` WHERE chat_id = ? AND key IN (`+placeholders+`) ORDER BY key, created_at ASC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	versions, err := collectVersions(rows)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		out[v.Key] = append(out[v.Key], v)
	}
	return out, nil
}

// ListKeys returns every allocated key for the tenant, ascending. Key
// order is also chronological within a day thanks to the daily sequence.
func (s *Store) ListKeys(ctx context.Context, chatID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM task_keys WHERE chat_id = ? ORDER BY key ASC`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// CountCreatedWithin counts tasks first created in [start, end) for the
// tenant; the key allocator's daily sequence is derived from it.
func (s *Store) CountCreatedWithin(ctx context.Context, chatID string, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM task_keys WHERE chat_id = ? AND created_at >= ? AND created_at < ?`,
		chatID, start.UnixNano(), end.UnixNano(),
	).Scan(&n)
	return n, err
}

const versionSelect = `SELECT chat_id, key, content, priority, tags, contexts, projects, status,
	due_date, snoozed_until, completed_at, created_at FROM task_versions`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (task.Version, error) {
	var v task.Version
	var tags, contexts, projects, status string
	var due, snoozed, completed sql.NullInt64
	var created int64
	if err := row.Scan(&v.ChatID, &v.Key, &v.Content, &v.Priority,
		&tags, &contexts, &projects, &status,
		&due, &snoozed, &completed, &created); err != nil {
		return task.Version{}, err
	}
	v.Status = task.Status(status)
	if err := unmarshalList(tags, &v.Tags); err != nil {
		return task.Version{}, err
	}
	if err := unmarshalList(contexts, &v.Contexts); err != nil {
		return task.Version{}, err
	}
	if err := unmarshalList(projects, &v.Projects); err != nil {
		return task.Version{}, err
	}
	v.DueDate = fromNanos(due)
	v.SnoozedUntil = fromNanos(snoozed)
	v.CompletedAt = fromNanos(completed)
	v.CreatedAt = time.Unix(0, created)
	return v, nil
}

func collectVersions(rows *sql.Rows) ([]task.Version, error) {
	var out []task.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func marshalList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalList(s string, dst *[]string) error {
	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		return err
	}
	if len(list) > 0 {
		*dst = list
	}
	return nil
}

func nanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

func fromNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(0, n.Int64)
	return &t
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
