package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/invoice-parser/constants"
)

var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one inbox file waiting to be processed.
type Job struct {
	Path        string
	HashHex     string
	DocType     constants.DocumentType
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// Handler processes one job. Its error is logged by the queue and nothing else.
type Handler func(ctx context.Context, job Job) error
