package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

func openTestRepo(t *testing.T) (*DB, JobRepository) {
	t.Helper()
	db, err := Open(t.Context(), Config{
		Driver:      common.StoreSQLite,
		DSN:         filepath.Join(t.TempDir(), "jobs.db"),
		DialTimeout: time.Second,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	repo := NewJobRepository(db, nil)
	require.NoError(t, repo.Migrate(t.Context()))
	return db, repo
}

func TestJobLifecycle(t *testing.T) {
	_, repo := openTestRepo(t)
	ctx := t.Context()

	id := uuid.New()
	require.NoError(t, repo.Start(ctx, Job{
		ID:        id,
		FileName:  "march.pdf",
		DocType:   constants.DocTypeInvoice.String(),
		Analyzer:  common.AnalyzerAzure,
		Provider:  common.ProviderAzure,
		SizeBytes: 2048,
	}))

	got, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusRunning, got.Status)
	assert.Equal(t, "march.pdf", got.FileName)
	assert.EqualValues(t, 2048, got.SizeBytes)
	assert.Nil(t, got.FinishedAt)
	assert.Zero(t, got.Duration())

	require.NoError(t, repo.MarkAnalyzed(ctx, id, 3, 2))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusAnalyzed, got.Status)
	assert.Equal(t, 3, got.Pages)
	assert.Equal(t, 2, got.Tables)

	require.NoError(t, repo.Finish(ctx, id, JobOutcome{Status: constants.JobStatusSucceeded, ReplyChars: 512}))
	got, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusSucceeded, got.Status)
	assert.Equal(t, 512, got.ReplyChars)
	require.NotNil(t, got.FinishedAt)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestFinishRejectsNonTerminalStatus(t *testing.T) {
	_, repo := openTestRepo(t)
	err := repo.Finish(t.Context(), uuid.New(), JobOutcome{Status: constants.JobStatusRunning})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not terminal")
}

func TestUnknownJob(t *testing.T) {
	_, repo := openTestRepo(t)
	ctx := t.Context()

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.ErrorIs(t, repo.MarkAnalyzed(ctx, uuid.New(), 1, 1), ErrJobNotFound)
	assert.ErrorIs(t, repo.Finish(ctx, uuid.New(), JobOutcome{Status: constants.JobStatusFailed}), ErrJobNotFound)
}

func TestListRecentNewestFirst(t *testing.T) {
	_, repo := openTestRepo(t)
	ctx := t.Context()

	base := time.Now().Add(-time.Hour)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		id := uuid.New()
		ids = append(ids, id)
		require.NoError(t, repo.Start(ctx, Job{
			ID:        id,
			FileName:  "doc.pdf",
			DocType:   constants.DocTypeTimesheet.String(),
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Finish(ctx, ids[1], JobOutcome{Status: constants.JobStatusFailed, ErrorMessage: "boom"}))

	jobs, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, ids[2], jobs[0].ID)
	assert.Equal(t, ids[1], jobs[1].ID)
	assert.Equal(t, constants.JobStatusFailed, jobs[1].Status)
	assert.Equal(t, "boom", jobs[1].ErrorMessage)
}

func TestMigrateIsIdempotentAndStoresNoContent(t *testing.T) {
	db, repo := openTestRepo(t)
	require.NoError(t, repo.Migrate(t.Context()))

	rows, err := db.Driver.DB().QueryContext(context.Background(), "SELECT name FROM pragma_table_info('jobs')")
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	assert.ElementsMatch(t, jobColumns, cols)
	for _, c := range cols {
		assert.NotContains(t, []string{"markdown", "reply", "text", "content"}, c)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(t.Context(), Config{Driver: "mysql"}, nil)
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestHealthCheck(t *testing.T) {
	db, _ := openTestRepo(t)
	assert.NoError(t, db.HealthCheck(t.Context(), time.Second))
}

func TestCreateJobsTableDDL(t *testing.T) {
	pg := createJobsTable(dialect.Postgres)
	assert.Contains(t, pg, "CREATE TABLE IF NOT EXISTS jobs (")
	assert.Contains(t, pg, "started_at BIGINT NOT NULL")
	assert.Contains(t, pg, "finished_at BIGINT\n)")

	lite := createJobsTable(dialect.SQLite)
	assert.Contains(t, lite, "started_at INTEGER NOT NULL")
	assert.NotContains(t, lite, "BIGINT")
	for _, c := range jobColumns {
		assert.Contains(t, lite, "\t"+c+" ", "column %s", c)
	}
}
