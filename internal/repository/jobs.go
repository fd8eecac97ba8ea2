package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-parser/constants"
)

const jobsTable = "jobs"

var ErrJobNotFound = errors.New("job not found")

// Job is one processed document. Only metadata is kept: extracted text, markdown
// and LLM replies never reach the store.
type Job struct {
	ID           uuid.UUID
	FileName     string
	DocType      string
	Analyzer     string
	Provider     string
	Status       constants.JobStatus
	SizeBytes    int64
	Pages        int
	Tables       int
	ReplyChars   int
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// Duration is zero while the job is still running.
func (j Job) Duration() time.Duration {
	if j.FinishedAt == nil {
		return 0
	}
	return j.FinishedAt.Sub(j.StartedAt)
}

// JobOutcome is what Finish writes onto a job row.
type JobOutcome struct {
	Status       constants.JobStatus
	ReplyChars   int
	ErrorMessage string
}

type JobRepository interface {
	Migrate(ctx context.Context) error
	Start(ctx context.Context, job Job) error
	MarkAnalyzed(ctx context.Context, id uuid.UUID, pages, tables int) error
	Finish(ctx context.Context, id uuid.UUID, out JobOutcome) error
	Get(ctx context.Context, id uuid.UUID) (*Job, error)
	ListRecent(ctx context.Context, limit int) ([]Job, error)
}

type jobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewJobRepository(db *DB, log *slog.Logger) JobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &jobRepo{db: db, log: log}
}

var jobColumns = []string{
	"id", "file_name", "doc_type", "analyzer", "provider", "status",
	"size_bytes", "pages", "table_count", "reply_chars", "error_message",
	"started_at", "finished_at",
}

// Migrate creates the jobs table when it does not exist yet.
func (r *jobRepo) Migrate(ctx context.Context) error {
	q := createJobsTable(r.db.Dialect)
	if err := r.db.Driver.Exec(ctx, q, []any{}, nil); err != nil {
		r.log.Error("jobs migrate failed", "err", err)
		return fmt.Errorf("create %s table: %w", jobsTable, err)
	}
	return nil
}

// createJobsTable returns the DDL for the jobs table. Timestamps are unix
// milliseconds; sqlite stores every integer width as INTEGER.
func createJobsTable(d string) string {
	bigint := "BIGINT"
	if d == dialect.SQLite {
		bigint = "INTEGER"
	}
	return "CREATE TABLE IF NOT EXISTS " + jobsTable + ` (
	id VARCHAR(36) PRIMARY KEY,
	file_name TEXT NOT NULL,
	doc_type TEXT NOT NULL,
	analyzer TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL DEFAULT '',
	status VARCHAR(16) NOT NULL,
	size_bytes ` + bigint + ` NOT NULL DEFAULT 0,
	pages INTEGER NOT NULL DEFAULT 0,
	table_count INTEGER NOT NULL DEFAULT 0,
	reply_chars INTEGER NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	started_at ` + bigint + ` NOT NULL,
	finished_at ` + bigint + `
)`
}

func (r *jobRepo) Start(ctx context.Context, job Job) error {
	if job.Status == "" {
		job.Status = constants.JobStatusRunning
	}
	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Insert(jobsTable).
		Columns("id", "file_name", "doc_type", "analyzer", "provider", "status", "size_bytes", "started_at").
		Values(job.ID.String(), job.FileName, job.DocType, job.Analyzer, job.Provider, string(job.Status), job.SizeBytes, job.StartedAt.UnixMilli()).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("job start failed", "job_id", job.ID, "file", job.FileName, "err", err)
		return err
	}
	r.log.Debug("job started", "job_id", job.ID, "file", job.FileName, "doc_type", job.DocType)
	return nil
}

func (r *jobRepo) MarkAnalyzed(ctx context.Context, id uuid.UUID, pages, tables int) error {
	q, args := entsql.Dialect(r.db.Dialect).
		Update(jobsTable).
		Set("status", string(constants.JobStatusAnalyzed)).
		Set("pages", pages).
		Set("table_count", tables).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.exec1(ctx, q, args); err != nil {
		r.log.Error("job mark analyzed failed", "job_id", id, "err", err)
		return err
	}
	return nil
}

func (r *jobRepo) Finish(ctx context.Context, id uuid.UUID, out JobOutcome) error {
	if !out.Status.IsTerminal() {
		return fmt.Errorf("finish job %s: status %q is not terminal", id, out.Status)
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Update(jobsTable).
		Set("status", string(out.Status)).
		Set("reply_chars", out.ReplyChars).
		Set("error_message", out.ErrorMessage).
		Set("finished_at", time.Now().UnixMilli()).
		Where(entsql.EQ("id", id.String())).
		Query()
	if err := r.exec1(ctx, q, args); err != nil {
		r.log.Error("job finish failed", "job_id", id, "status", out.Status, "err", err)
		return err
	}
	if out.Status == constants.JobStatusFailed {
		r.log.Warn("job finished (FAILED)", "job_id", id, "error", out.ErrorMessage)
	} else {
		r.log.Debug("job finished", "job_id", id, "status", out.Status)
	}
	return nil
}

func (r *jobRepo) Get(ctx context.Context, id uuid.UUID) (*Job, error) {
	q, args := entsql.Dialect(r.db.Dialect).
		Select(jobColumns...).
		From(entsql.Table(jobsTable)).
		Where(entsql.EQ("id", id.String())).
		Query()
	jobs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return &jobs[0], nil
}

// ListRecent returns the newest jobs first.
func (r *jobRepo) ListRecent(ctx context.Context, limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	q, args := entsql.Dialect(r.db.Dialect).
		Select(jobColumns...).
		From(entsql.Table(jobsTable)).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	return r.query(ctx, q, args)
}

// exec1 runs an UPDATE that must touch exactly one row.
func (r *jobRepo) exec1(ctx context.Context, q string, args []any) error {
	var res sql.Result
	if err := r.db.Driver.Exec(ctx, q, args, &res); err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *jobRepo) query(ctx context.Context, q string, args []any) ([]Job, error) {
	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("query %s: %w", jobsTable, err)
	}
	defer func(rows *entsql.Rows) {
		if err := rows.Close(); err != nil {
			r.log.Warn("jobs rows close error", "err", err)
		}
	}(rows)

	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func scanJob(rows *entsql.Rows) (Job, error) {
	var (
		j          Job
		id, status string
		startedAt  int64
		finishedAt sql.NullInt64
	)
	if err := rows.Scan(
		&id, &j.FileName, &j.DocType, &j.Analyzer, &j.Provider, &status,
		&j.SizeBytes, &j.Pages, &j.Tables, &j.ReplyChars, &j.ErrorMessage,
		&startedAt, &finishedAt,
	); err != nil {
		return Job{}, fmt.Errorf("scan job: %w", err)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Job{}, fmt.Errorf("scan job id %q: %w", id, err)
	}
	j.ID = parsed
	j.Status = constants.JobStatus(status)
	j.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64)
		j.FinishedAt = &t
	}
	return j, nil
}
