package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pageask/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "history.db"

// DefaultListLimit is used when ListAnswers is called without a limit.
const DefaultListLimit = 20

// timeLayout has a fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned by GetAnswer for an unknown id.
var ErrNotFound = errors.New("answer not found")

// HistoryDB stores answers in a single SQLite file.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
	CreateIfNotExists bool

	// EnableWAL enables write-ahead logging.
	EnableWAL bool
}

// DefaultOptions returns the options used by the CLI and the server.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the history database in dbDir.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	db, err := sql.Open("sqlite", dbPath+"?mode="+mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; the server saves from many goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	h := &HistoryDB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := h.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return h, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

func (h *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS answers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		query TEXT NOT NULL,
		answer TEXT NOT NULL,
		reasoning TEXT NOT NULL,
		html_element TEXT,
		captcha_detected INTEGER NOT NULL DEFAULT 0,
		captcha_attempts INTEGER NOT NULL DEFAULT 0,
		image_count INTEGER NOT NULL DEFAULT 0,
		content_hash TEXT,
		model TEXT,
		elapsed_ms INTEGER NOT NULL DEFAULT 0,
		asked_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_answers_url ON answers(url);
	CREATE INDEX IF NOT EXISTS idx_answers_asked_at ON answers(asked_at);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveAnswer appends a to the history and sets a.ID.
func (h *HistoryDB) SaveAnswer(ctx context.Context, a *model.Answer) error {
	askedAt := a.AskedAt
	if askedAt.IsZero() {
		askedAt = time.Now()
	}

	query := `
	INSERT INTO answers (url, query, answer, reasoning, html_element, captcha_detected,
		captcha_attempts, image_count, content_hash, model, elapsed_ms, asked_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var element sql.NullString
	if a.Result.HTMLElement != nil {
		element = sql.NullString{String: *a.Result.HTMLElement, Valid: true}
	}

	result, err := h.db.ExecContext(ctx, query,
		a.URL,
		a.Query,
		a.Result.Answer,
		a.Result.Reasoning,
		element,
		a.CaptchaDetected,
		a.CaptchaAttempts,
		a.ImageCount,
		a.ContentHash,
		a.Model,
		a.Elapsed.Milliseconds(),
		askedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read answer id: %w", err)
	}
	a.ID = id
	return nil
}

const selectAnswer = `
	SELECT id, url, query, answer, reasoning, html_element, captcha_detected,
		captcha_attempts, image_count, content_hash, model, elapsed_ms, asked_at
	FROM answers
	`

// GetAnswer returns the answer with the given id.
func (h *HistoryDB) GetAnswer(ctx context.Context, id int64) (*model.Answer, error) {
	row := h.db.QueryRowContext(ctx, selectAnswer+" WHERE id = ?", id)
	a, err := scanAnswer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}
	return a, nil
}

// ListFilter narrows ListAnswers.
type ListFilter struct {
	// URL limits results to one page. Empty matches all pages.
	URL string
	// Limit caps the number of results. Zero means DefaultListLimit.
	Limit int
}

// ListAnswers returns stored answers, newest first.
func (h *HistoryDB) ListAnswers(ctx context.Context, filter ListFilter) ([]*model.Answer, error) {
	query := selectAnswer + " WHERE 1=1"
	args := make([]any, 0, 2)

	if filter.URL != "" {
		query += " AND url = ?"
		args = append(args, filter.URL)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	query += " ORDER BY asked_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []*model.Answer
	for rows.Next() {
		a, err := scanAnswer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// PreviousHash returns the content hash stored with the most recent answer
// for url, or "" when the page was never asked about.
func (h *HistoryDB) PreviousHash(ctx context.Context, url string) (string, error) {
	var hash sql.NullString
	err := h.db.QueryRowContext(ctx,
		`SELECT content_hash FROM answers WHERE url = ? ORDER BY asked_at DESC, id DESC LIMIT 1`,
		url,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read content hash: %w", err)
	}
	return hash.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnswer(row rowScanner) (*model.Answer, error) {
	var (
		a         model.Answer
		element   sql.NullString
		hash      sql.NullString
		modelName sql.NullString
		elapsedMS int64
		askedAt   string
	)
	err := row.Scan(
		&a.ID,
		&a.URL,
		&a.Query,
		&a.Result.Answer,
		&a.Result.Reasoning,
		&element,
		&a.CaptchaDetected,
		&a.CaptchaAttempts,
		&a.ImageCount,
		&hash,
		&modelName,
		&elapsedMS,
		&askedAt,
	)
	if err != nil {
		return nil, err
	}

	if element.Valid {
		a.Result.HTMLElement = model.StringPtr(element.String)
	}
	a.ContentHash = hash.String
	a.Model = modelName.String
	a.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	a.AskedAt = parseTimestamp(askedAt)
	return &a, nil
}

// timestampFormats contains the timestamp formats that may be stored.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp returns the zero time when no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
