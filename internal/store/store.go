package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/classinsight/internal/model"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run or a question within a run does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db    *sql.DB
	cache RunCache
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// WithCache puts a read-through run cache in front of the database.
func (s *Store) WithCache(c RunCache) *Store {
	s.cache = c
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		total_students INTEGER NOT NULL DEFAULT 0,
		num_questions INTEGER NOT NULL DEFAULT 0,
		result TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS teaching_overrides (
		run_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		teaching_action TEXT NOT NULL,
		updated_at DATETIME NOT NULL,
		PRIMARY KEY (run_id, question_id),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS uploads (
		hash TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		run_id TEXT NOT NULL,
		uploaded_at DATETIME NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS run_metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// NewRunID returns a fresh opaque run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// SaveRun inserts or replaces the stored result of a run.
func (s *Store) SaveRun(ctx context.Context, run *model.AnalysisResult) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.RunID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, total_students, num_questions, result)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET created_at = ?, total_students = ?, num_questions = ?, result = ?`,
		run.RunID, run.CreatedAt, run.TotalStudents, len(run.Questions), string(data),
		run.CreatedAt, run.TotalStudents, len(run.Questions), string(data),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.RunID, err)
	}
	s.invalidate(ctx, run.RunID)
	return nil
}

// GetRun returns a stored run with teaching-action overrides applied.
func (s *Store) GetRun(ctx context.Context, runID string) (*model.AnalysisResult, error) {
	if s.cache != nil {
		run, err := s.cache.Get(ctx, runID)
		if err != nil {
			slog.Warn("run cache read failed", "run_id", runID, "error", err)
		} else if run != nil {
			return run, nil
		}
	}

	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.TeachingActions(ctx, runID)
	if err != nil {
		return nil, err
	}
	for i := range run.Questions {
		if text, ok := overrides[run.Questions[i].QuestionID]; ok {
			run.Questions[i].Summary.TeachingActionOverride = &text
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, run); err != nil {
			slog.Warn("run cache write failed", "run_id", runID, "error", err)
		}
	}
	return run, nil
}

// loadRun reads the generated result without overrides.
func (s *Store) loadRun(ctx context.Context, runID string) (*model.AnalysisResult, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT result FROM runs WHERE id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	var run model.AnalysisResult
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", runID, err)
	}
	return &run, nil
}

// ListRuns returns run headers, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]model.RunHeader, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, total_students, num_questions FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var runs []model.RunHeader
	for rows.Next() {
		var h model.RunHeader
		if err := rows.Scan(&h.RunID, &h.CreatedAt, &h.TotalStudents, &h.NumQuestions); err != nil {
			return nil, err
		}
		runs = append(runs, h)
	}
	return runs, rows.Err()
}

// SetTeachingAction stores a verbatim teaching-action override for one
// question of a run. The generated summary is left untouched.
func (s *Store) SetTeachingAction(ctx context.Context, runID, questionID, text string) error {
	run, err := s.loadRun(ctx, runID)
	if err != nil {
		return err
	}
	if run.Question(questionID) == nil {
		return fmt.Errorf("question %s in run %s: %w", questionID, runID, ErrNotFound)
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO teaching_overrides (run_id, question_id, teaching_action, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(run_id, question_id) DO UPDATE SET teaching_action = ?, updated_at = ?`,
		runID, questionID, text, now, text, now,
	)
	if err != nil {
		return fmt.Errorf("set teaching action: %w", err)
	}
	s.invalidate(ctx, runID)
	return nil
}

// TeachingActions returns the overrides of a run keyed by question id.
func (s *Store) TeachingActions(ctx context.Context, runID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question_id, teaching_action FROM teaching_overrides WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	overrides := make(map[string]string)
	for rows.Next() {
		var qid, text string
		if err := rows.Scan(&qid, &text); err != nil {
			return nil, err
		}
		overrides[qid] = text
	}
	return overrides, rows.Err()
}

func (s *Store) invalidate(ctx context.Context, runID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, runID); err != nil {
		slog.Warn("run cache invalidation failed", "run_id", runID, "error", err)
	}
}
