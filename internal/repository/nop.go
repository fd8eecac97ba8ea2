package repository

import (
	"context"

	"github.com/google/uuid"
)

// NopJobRepository is used when JOB_STORE_DRIVER=none.
type NopJobRepository struct{}

var _ JobRepository = NopJobRepository{}

func (NopJobRepository) Migrate(context.Context) error                           { return nil }
func (NopJobRepository) Start(context.Context, Job) error                        { return nil }
func (NopJobRepository) MarkAnalyzed(context.Context, uuid.UUID, int, int) error { return nil }
func (NopJobRepository) Finish(context.Context, uuid.UUID, JobOutcome) error     { return nil }

func (NopJobRepository) Get(_ context.Context, id uuid.UUID) (*Job, error) {
	return nil, ErrJobNotFound
}

func (NopJobRepository) ListRecent(context.Context, int) ([]Job, error) { return nil, nil }
