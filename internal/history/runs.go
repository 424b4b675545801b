package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const runColumns = `id, run_id, session_id, input_kind, source, resolution, source_language,
    status, error_kind, error_message, diagnostic, tracks_json, started_at, finished_at`

// Start records a new running row. StartedAt defaults to now.
func (s *Store) Start(ctx context.Context, run Run) (*Run, error) {
	if strings.TrimSpace(run.RunID) == "" {
		return nil, errors.New("start run: run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.Status = StatusRunning

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO runs (run_id, session_id, input_kind, source, resolution, status, started_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.SessionID,
		run.InputKind,
		run.Source,
		run.Resolution,
		run.Status,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	if run.ID, err = res.LastInsertId(); err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &run, nil
}

// Finish stores the terminal outcome of a run.
func (s *Store) Finish(ctx context.Context, runID string, outcome Outcome) error {
	if outcome.Status == "" || outcome.Status == StatusRunning {
		return fmt.Errorf("finish run %s: invalid terminal status %q", runID, outcome.Status)
	}
	tracksJSON, err := json.Marshal(outcome.Tracks)
	if err != nil {
		return fmt.Errorf("marshal tracks: %w", err)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET status = ?, source_language = ?, tracks_json = ?, error_kind = ?,
            error_message = ?, diagnostic = ?, finished_at = ?
        WHERE run_id = ?`,
		outcome.Status,
		nullableString(outcome.SourceLanguage),
		string(tracksJSON),
		nullableString(outcome.ErrorKind),
		nullableString(outcome.ErrorMessage),
		nullableString(outcome.Diagnostic),
		time.Now().UTC().Format(time.RFC3339Nano),
		runID,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", runID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update run %s: %w", runID, sql.ErrNoRows)
	}
	return nil
}

// MarkInterrupted fails every run still marked running. It is called once at
// startup, before any new run begins.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE runs SET status = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		StatusFailed,
		"interrupted",
		InterruptedReason,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Get returns the run with the given identifier, or nil when absent.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

// ListFilter narrows List results.
type ListFilter struct {
	Statuses  []Status
	SessionID int64
	Limit     int
}

// List returns runs newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var (
		clauses []string
		args    []any
	)
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		clauses = append(clauses, "status IN ("+strings.Join(placeholders, ",")+")")
	}
	if filter.SessionID != 0 {
		clauses = append(clauses, "session_id = ?")
		args = append(args, filter.SessionID)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Stats returns the number of runs per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `SELECT status, COUNT(1) FROM runs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("run stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// Prune deletes finished runs older than the cutoff.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`DELETE FROM runs WHERE status != ? AND started_at < ?`,
		StatusRunning,
		before.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(scanner rowScanner) (*Run, error) {
	var (
		run        Run
		status     string
		language   sql.NullString
		errorKind  sql.NullString
		errorMsg   sql.NullString
		diagnostic sql.NullString
		tracksJSON sql.NullString
		startedAt  string
		finishedAt sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&run.RunID,
		&run.SessionID,
		&run.InputKind,
		&run.Source,
		&run.Resolution,
		&language,
		&status,
		&errorKind,
		&errorMsg,
		&diagnostic,
		&tracksJSON,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.SourceLanguage = language.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMsg.String
	run.Diagnostic = diagnostic.String
	if tracksJSON.Valid && tracksJSON.String != "" {
		if err := json.Unmarshal([]byte(tracksJSON.String), &run.Tracks); err != nil {
			return nil, fmt.Errorf("decode tracks: %w", err)
		}
	}
	run.StartedAt = parseTime(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTime(finishedAt.String)
	}
	return &run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}
