// Package jobs records notebook generations in a local SQLite database so
// users can revisit earlier runs.
package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DefaultDBName is the database file created under the output directory.
const DefaultDBName = "slmgen-jobs.db"

// Job statuses.
const (
	StatusCreated       = "created"
	StatusNotebookReady = "notebook_ready"
	StatusPublished     = "published"
)

// Page size limits for List.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

var (
	// ErrJobNotFound is returned when a job does not exist or belongs to
	// another user.
	ErrJobNotFound = errors.New("job not found")
	// ErrNoUpdates is returned by Update when no field is set.
	ErrNoUpdates = errors.New("no update fields provided")
)

// Job is one notebook generation.
type Job struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	SessionID        string    `json:"session_id"`
	DatasetFilename  string    `json:"dataset_filename"`
	TotalExamples    int       `json:"total_examples"`
	TotalTokens      int       `json:"total_tokens"`
	QualityScore     float64   `json:"quality_score"`
	Task             string    `json:"task_type"`
	Deployment       string    `json:"deployment_target"`
	ModelID          string    `json:"selected_model_id"`
	ModelName        string    `json:"selected_model_name"`
	ModelScore       int       `json:"model_score"`
	NotebookFilename string    `json:"notebook_filename,omitempty"`
	ColabURL         string    `json:"colab_url,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Update holds optional job changes. Nil fields are left alone.
type Update struct {
	NotebookFilename *string `json:"notebook_filename,omitempty"`
	ColabURL         *string `json:"colab_url,omitempty"`
	Status           *string `json:"status,omitempty"`
}

func (u Update) empty() bool {
	return u.NotebookFilename == nil && u.ColabURL == nil && u.Status == nil
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	user_id           TEXT NOT NULL,
	session_id        TEXT NOT NULL,
	dataset_filename  TEXT NOT NULL,
	total_examples    INTEGER NOT NULL,
	total_tokens      INTEGER NOT NULL,
	quality_score     REAL NOT NULL,
	task_type         TEXT NOT NULL,
	deployment_target TEXT NOT NULL,
	model_id          TEXT NOT NULL,
	model_name        TEXT NOT NULL,
	model_score       INTEGER NOT NULL,
	notebook_filename TEXT NOT NULL DEFAULT '',
	colab_url         TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL,
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_user_created ON jobs(user_id, created_at DESC);
`

const jobColumns = `id, user_id, session_id, dataset_filename, total_examples, total_tokens,
	quality_score, task_type, deployment_target, model_id, model_name, model_score,
	notebook_filename, colab_url, status, created_at, updated_at`

// Store persists jobs in SQLite.
type Store struct {
	db    *sql.DB
	path  string
	Clock func() time.Time
}

// Open opens or creates the job database at path. The special path
// ":memory:" gives a private in-memory database.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("jobs: create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("jobs: open database: %w", err)
	}
	// ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("jobs: initialize schema: %w", err)
	}
	slog.Debug("Opened job store", "path", path)
	return &Store{db: db, path: path, Clock: time.Now}, nil
}

// Path returns the database path.
func (s *Store) Path() string { return s.path }

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Create stores a new job, assigning its ID, status and timestamps.
func (s *Store) Create(ctx context.Context, j Job) (Job, error) {
	if j.UserID == "" {
		return Job{}, errors.New("jobs: user id is required")
	}
	now := s.Clock().UTC()
	j.ID = uuid.NewString()
	j.CreatedAt, j.UpdatedAt = now, now
	if j.Status == "" {
		j.Status = StatusCreated
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, j.UserID, j.SessionID, j.DatasetFilename, j.TotalExamples, j.TotalTokens,
		j.QualityScore, j.Task, j.Deployment, j.ModelID, j.ModelName, j.ModelScore,
		j.NotebookFilename, j.ColabURL, j.Status, now.UnixNano(), now.UnixNano())
	if err != nil {
		return Job{}, fmt.Errorf("jobs: insert: %w", err)
	}
	return j, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner) (Job, error) {
	var (
		j                Job
		created, updated int64
	)
	err := row.Scan(&j.ID, &j.UserID, &j.SessionID, &j.DatasetFilename, &j.TotalExamples, &j.TotalTokens,
		&j.QualityScore, &j.Task, &j.Deployment, &j.ModelID, &j.ModelName, &j.ModelScore,
		&j.NotebookFilename, &j.ColabURL, &j.Status, &created, &updated)
	if err != nil {
		return Job{}, err
	}
	j.CreatedAt = time.Unix(0, created).UTC()
	j.UpdatedAt = time.Unix(0, updated).UTC()
	return j, nil
}

// Get returns the user's job with the given ID.
func (s *Store) Get(ctx context.Context, userID, id string) (Job, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ? AND user_id = ?`, id, userID)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("jobs: get %s: %w", id, err)
	}
	return j, nil
}

// List returns the user's jobs, newest first.
func (s *Store) List(ctx context.Context, userID string, limit, offset int) ([]Job, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	limit = min(limit, MaxListLimit)
	offset = max(offset, 0)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = ?
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("jobs: list: %w", err)
	}
	defer rows.Close()

	out := []Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("jobs: scan: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Update applies the set fields of u to the user's job.
func (s *Store) Update(ctx context.Context, userID, id string, u Update) (Job, error) {
	if u.empty() {
		return Job{}, ErrNoUpdates
	}
	var (
		sets []string
		args []any
	)
	if u.NotebookFilename != nil {
		sets, args = append(sets, "notebook_filename = ?"), append(args, *u.NotebookFilename)
	}
	if u.ColabURL != nil {
		sets, args = append(sets, "colab_url = ?"), append(args, *u.ColabURL)
	}
	if u.Status != nil {
		sets, args = append(sets, "status = ?"), append(args, *u.Status)
	}
	sets, args = append(sets, "updated_at = ?"), append(args, s.Clock().UTC().UnixNano())
	args = append(args, id, userID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET `+strings.Join(sets, ", ")+` WHERE id = ? AND user_id = ?`, args...)
	if err != nil {
		return Job{}, fmt.Errorf("jobs: update %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Job{}, ErrJobNotFound
	}
	return s.Get(ctx, userID, id)
}

// Delete removes the user's job.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("jobs: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrJobNotFound
	}
	return nil
}
