package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/agenthands/scribe/internal/entry"
)

// timeLayout is fixed-width UTC so that string comparison in SQL matches
// chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Entry is one durable, append-only, soft-deletable record.
type Entry struct {
	ID        int64         `json:"id"`
	UUID      string        `json:"uuid"`
	Agent     string        `json:"agent"`
	Type      string        `json:"type"`
	Subject   string        `json:"subject,omitempty"`
	Tags      []string      `json:"tags,omitempty"`
	Content   entry.Content `json:"-"`
	Lines     []string      `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Deleted   bool          `json:"deleted,omitempty"`
}

// Store is the shared persistence engine for all agents. Every write is a
// single-row transaction; no partial-write state is ever observable.
type Store struct {
	db *sql.DB
	mu sync.Mutex

	now func() time.Time
}

// Open opens (or creates) the entry database. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database %q: %w", path, err)
	}

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		uuid TEXT NOT NULL,
		agent TEXT NOT NULL,
		type TEXT NOT NULL,
		subject TEXT,
		tags TEXT,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		deleted INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_entries_agent_type ON entries(agent, type);
	CREATE INDEX IF NOT EXISTS idx_entries_updated_at ON entries(updated_at);

	CREATE TABLE IF NOT EXISTS reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		agent TEXT NOT NULL,
		type TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	INSERT OR IGNORE INTO meta (key, value) VALUES ('schema_version', '1');
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// AddParams carries one record to persist.
type AddParams struct {
	Agent   string
	Type    string
	Subject string
	Tags    []string
	Content entry.Content
}

// Add persists a new entry. The content wrapper is validated before
// anything touches the database; a fresh uuid is assigned and
// created_at == updated_at == now.
func (s *Store) Add(ctx context.Context, p AddParams) (Entry, error) {
	if p.Agent == "" || p.Type == "" {
		return Entry{}, &ValidationError{Reason: "agent and type are required"}
	}

	raw, err := p.Content.Marshal()
	if err != nil {
		return Entry{}, &ValidationError{Reason: err.Error()}
	}

	e := Entry{
		UUID:      uuid.New().String(),
		Agent:     p.Agent,
		Type:      p.Type,
		Subject:   p.Subject,
		Tags:      p.Tags,
		Content:   p.Content,
		Lines:     p.Content.Lines,
		CreatedAt: s.now(),
	}
	e.UpdatedAt = e.CreatedAt

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (uuid, agent, type, subject, tags, content, created_at, updated_at, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		e.UUID, e.Agent, e.Type, nullable(e.Subject), joinTags(e.Tags), raw,
		e.CreatedAt.Format(timeLayout), e.UpdatedAt.Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert entry: %w", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return Entry{}, fmt.Errorf("read inserted id: %w", err)
	}
	return e, nil
}

// AddText is the bare-string write path: the text is wrapped as a
// one-element content list. Text that already looks serialized is rejected.
func (s *Store) AddText(ctx context.Context, agent, typ, subjectKey string, tags []string, text string) (Entry, error) {
	c, err := entry.FromText(text)
	if err != nil {
		return Entry{}, &ValidationError{Reason: err.Error()}
	}
	return s.Add(ctx, AddParams{Agent: agent, Type: typ, Subject: subjectKey, Tags: tags, Content: c})
}

// Update overwrites an entry's content and advances updated_at. The uuid,
// created_at and deleted flag are never touched. Missing or soft-deleted
// entries yield ErrNotFound.
func (s *Store) Update(ctx context.Context, id int64, c entry.Content) error {
	raw, err := c.Marshal()
	if err != nil {
		return &ValidationError{Reason: err.Error()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET content = ?, updated_at = ?
		WHERE id = ? AND deleted = 0`,
		raw, s.now().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete flags an entry as deleted. Records are never physically removed;
// the tombstone keeps sync able to propagate the deletion.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE entries SET deleted = 1, updated_at = ?
		WHERE id = ? AND deleted = 0`,
		s.now().Format(timeLayout), id,
	)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Filter narrows an Entries read.
type Filter struct {
	Agent string
	Type  string
	Limit int
}

// Entries returns live (non-deleted) entries, newest first.
func (s *Store) Entries(ctx context.Context, f Filter) ([]Entry, error) {
	query := "SELECT id, uuid, agent, type, subject, tags, content, created_at, updated_at, deleted FROM entries WHERE deleted = 0"
	var args []any

	if f.Agent != "" {
		query += " AND agent = ?"
		args = append(args, f.Agent)
	}
	if f.Type != "" {
		query += " AND type = ?"
		args = append(args, f.Type)
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	return s.queryEntries(ctx, query, args...)
}

// ChangedSince returns every entry for an agent, including deleted ones,
// whose updated_at is strictly after the given time. A nil time returns
// everything. This is the basis for incremental sync.
func (s *Store) ChangedSince(ctx context.Context, agent string, since *time.Time) ([]Entry, error) {
	query := "SELECT id, uuid, agent, type, subject, tags, content, created_at, updated_at, deleted FROM entries WHERE agent = ?"
	args := []any{agent}

	if since != nil {
		query += " AND updated_at > ?"
		args = append(args, since.UTC().Format(timeLayout))
	}
	query += " ORDER BY updated_at ASC, id ASC"

	return s.queryEntries(ctx, query, args...)
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			subj    sql.NullString
			tags    sql.NullString
			raw     string
			created string
			updated string
			deleted int
		)
		if err := rows.Scan(&e.ID, &e.UUID, &e.Agent, &e.Type, &subj, &tags, &raw, &created, &updated, &deleted); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Subject = subj.String
		e.Tags = splitTags(tags.String)
		e.Deleted = deleted != 0

		// Normalize content at the store boundary so downstream code
		// never branches on the storage shape.
		c, err := entry.UnmarshalContent(raw)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
		e.Content = c
		e.Lines = c.Lines

		if e.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("entry %d created_at: %w", e.ID, err)
		}
		if e.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
			return nil, fmt.Errorf("entry %d updated_at: %w", e.ID, err)
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// -------------------------------------------------
// Meta
// -------------------------------------------------

func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", key, value)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

func (s *Store) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, nil
}

// -------------------------------------------------
// Reports (append-only, never updated)
// -------------------------------------------------

// Report is a read-only artifact produced by the intelligence engine.
type Report struct {
	ID        int64     `json:"id"`
	Agent     string    `json:"agent"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveReport(ctx context.Context, r Report) (Report, error) {
	if r.Agent == "" || r.Type == "" || r.Content == "" {
		return Report{}, &ValidationError{Reason: "report agent, type and content are required"}
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (agent, type, content, created_at)
		VALUES (?, ?, ?, ?)`,
		r.Agent, r.Type, r.Content, r.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Report{}, fmt.Errorf("insert report: %w", err)
	}
	r.ID, err = res.LastInsertId()
	if err != nil {
		return Report{}, fmt.Errorf("read inserted report id: %w", err)
	}
	return r, nil
}

// Reports returns reports for an agent, newest first, optionally filtered
// by type.
func (s *Store) Reports(ctx context.Context, agent, reportType string) ([]Report, error) {
	query := "SELECT id, agent, type, content, created_at FROM reports WHERE agent = ?"
	args := []any{agent}
	if reportType != "" {
		query += " AND type = ?"
		args = append(args, reportType)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var (
			r       Report
			created string
		)
		if err := rows.Scan(&r.ID, &r.Agent, &r.Type, &r.Content, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("report %d created_at: %w", r.ID, err)
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// -------------------------------------------------
// helpers
// -------------------------------------------------

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
