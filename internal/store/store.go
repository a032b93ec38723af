package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/ganesh1082/query-to-pdf-sub000/config"
	"github.com/ganesh1082/query-to-pdf-sub000/models"
)

// Store persists research runs, their results, and recurring schedules.
type Store struct {
	DB *sql.DB
}

// RunRecord is one persisted research run.
type RunRecord struct {
	ID          string                  `json:"id"`
	Topic       string                  `json:"topic"`
	ReportType  string                  `json:"report_type"`
	Status      string                  `json:"status"`
	Error       string                  `json:"error,omitempty"`
	CreditsUsed int                     `json:"credits_used"`
	Result      *models.ResearchResult  `json:"result,omitempty"`
	Blueprint   *models.ReportBlueprint `json:"blueprint,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	FinishedAt  *time.Time              `json:"finished_at,omitempty"`
}

// ScheduleRecord is a recurring report definition.
type ScheduleRecord struct {
	ID         string     `json:"id"`
	Topic      string     `json:"topic"`
	ReportType string     `json:"report_type"`
	CronExpr   string     `json:"cron_expr"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// New opens a Postgres connection from config and verifies it.
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewWithDSN(ctx, cfg.DSN())
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// User operations
func (s *Store) CreateUser(ctx context.Context, email, hash string) error {
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (email, password_hash) VALUES ($1,$2)`, email, hash)
	return err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (id string, hash string, err error) {
	err = s.DB.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email=$1`, email).Scan(&id, &hash)
	return
}

// Run operations
func (s *Store) CreateRun(ctx context.Context, id, topic, reportType string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, topic, report_type, status) VALUES ($1,$2,$3,$4)`,
		id, topic, reportType, string(models.RunRunning))
	return err
}

func (s *Store) UpdateRunStatus(ctx context.Context, id string, status models.RunState, errMsg string) error {
	res, err := s.DB.ExecContext(ctx,
		`UPDATE runs SET status=$2, error=NULLIF($3,''), finished_at=CASE WHEN $2='running' THEN NULL ELSE NOW() END WHERE id=$1`,
		id, string(status), errMsg)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrRunNotFound
	}
	return nil
}

// SaveRunResult stores the research result and blueprint and marks the run
// succeeded.
func (s *Store) SaveRunResult(ctx context.Context, id string, result *models.ResearchResult, bp *models.ReportBlueprint) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	bpJSON, err := json.Marshal(bp)
	if err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	credits := 0
	if result != nil {
		credits = result.CreditsUsed
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE runs SET status=$2, credits_used=$3, result=$4, blueprint=$5, error=NULL, finished_at=NOW()
WHERE id=$1`,
		id, string(models.RunSucceeded), credits, resultJSON, bpJSON)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.ErrRunNotFound
	}
	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, error) {
	var (
		r          RunRecord
		errMsg     sql.NullString
		resultJSON []byte
		bpJSON     []byte
		finishedAt sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, `
SELECT id, topic, report_type, status, error, credits_used, result, blueprint, created_at, finished_at
FROM runs WHERE id=$1`, id).Scan(
		&r.ID, &r.Topic, &r.ReportType, &r.Status, &errMsg, &r.CreditsUsed,
		&resultJSON, &bpJSON, &r.CreatedAt, &finishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, models.ErrRunNotFound
	}
	if err != nil {
		return RunRecord{}, err
	}
	r.Error = errMsg.String
	if finishedAt.Valid {
		t := finishedAt.Time
		r.FinishedAt = &t
	}
	if len(resultJSON) > 0 {
		var result models.ResearchResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return RunRecord{}, fmt.Errorf("unmarshal result: %w", err)
		}
		r.Result = &result
	}
	if len(bpJSON) > 0 {
		var bp models.ReportBlueprint
		if err := json.Unmarshal(bpJSON, &bp); err != nil {
			return RunRecord{}, fmt.Errorf("unmarshal blueprint: %w", err)
		}
		r.Blueprint = &bp
	}
	return r, nil
}

// ListRuns returns recent runs without their result payloads.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, topic, report_type, status, error, credits_used, created_at, finished_at
FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunRecord
	for rows.Next() {
		var (
			r          RunRecord
			errMsg     sql.NullString
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&r.ID, &r.Topic, &r.ReportType, &r.Status, &errMsg, &r.CreditsUsed, &r.CreatedAt, &finishedAt); err != nil {
			return nil, err
		}
		r.Error = errMsg.String
		if finishedAt.Valid {
			t := finishedAt.Time
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// HasActiveRun reports whether any run is still in the running state.
func (s *Store) HasActiveRun(ctx context.Context) (bool, error) {
	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM runs WHERE status=$1`, string(models.RunRunning)).Scan(&count)
	return count > 0, err
}

// Schedule operations
func (s *Store) CreateSchedule(ctx context.Context, id, topic, reportType, cronExpr string) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO schedules (id, topic, report_type, cron_expr) VALUES ($1,$2,$3,$4)`,
		id, topic, reportType, cronExpr)
	return err
}

func (s *Store) ListSchedules(ctx context.Context) ([]ScheduleRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, topic, report_type, cron_expr, last_run_at, created_at FROM schedules ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ScheduleRecord
	for rows.Next() {
		var (
			rec       ScheduleRecord
			lastRunAt sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.Topic, &rec.ReportType, &rec.CronExpr, &lastRunAt, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if lastRunAt.Valid {
			t := lastRunAt.Time
			rec.LastRunAt = &t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `DELETE FROM schedules WHERE id=$1`, id)
	return err
}

// TouchSchedule records that the schedule just fired.
func (s *Store) TouchSchedule(ctx context.Context, id string) error {
	_, err := s.DB.ExecContext(ctx, `UPDATE schedules SET last_run_at=NOW() WHERE id=$1`, id)
	return err
}
