// Package pipeline runs one PDF through layout analysis, markdown rendering,
// prompt selection and the LLM, one document at a time.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/analysis"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/extract"
	"github.com/joseph-ayodele/invoice-parser/internal/llm"
	"github.com/joseph-ayodele/invoice-parser/internal/markdown"
	"github.com/joseph-ayodele/invoice-parser/internal/prompts"
	"github.com/joseph-ayodele/invoice-parser/internal/repository"
)

// Document is one uploaded PDF plus the type the user picked for it.
type Document struct {
	Name string
	Data []byte
	Type constants.DocumentType
}

// ReadDocument loads a PDF from disk.
func ReadDocument(path string, dt constants.DocumentType) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Document{Name: filepath.Base(path), Data: data, Type: dt}, nil
}

// Result is the outcome for one document. Exactly one of Reply and Err is meaningful.
type Result struct {
	Name     string
	Type     constants.DocumentType
	JobID    uuid.UUID
	Reply    string
	Err      error
	Pages    int
	Tables   int
	Duration time.Duration
}

// Output is the string shown to the user: the LLM reply, or the error line.
func (r Result) Output() string {
	if r.Err != nil {
		return constants.ErrorReplyPrefix + r.Err.Error()
	}
	return r.Reply
}

// Rendered is the analysis half of the pipeline.
type Rendered struct {
	Markdown string
	Pages    int
	Tables   int
}

// JobRecorder receives per-document metadata. repository.JobRepository satisfies it.
type JobRecorder interface {
	Start(ctx context.Context, job repository.Job) error
	MarkAnalyzed(ctx context.Context, id uuid.UUID, pages, tables int) error
	Finish(ctx context.Context, id uuid.UUID, out repository.JobOutcome) error
}

type Processor struct {
	analyzer  analysis.Analyzer
	completer llm.Completer
	renderer  *markdown.Renderer
	jobs      JobRecorder
	tempDir   string
	labels    labels
	observe   func(done, total int, r Result)
	logger    *slog.Logger
}

type labels struct {
	analyzer string
	provider string
}

type Option func(*Processor)

func WithRenderer(r *markdown.Renderer) Option {
	return func(p *Processor) {
		if r != nil {
			p.renderer = r
		}
	}
}

func WithJobRecorder(j JobRecorder) Option {
	return func(p *Processor) { p.jobs = j }
}

// WithTempDir sets where uploaded bytes are staged. Empty means os.TempDir().
func WithTempDir(dir string) Option {
	return func(p *Processor) { p.tempDir = dir }
}

// WithLabels names the analyzer and LLM provider in job records.
func WithLabels(analyzer, provider string) Option {
	return func(p *Processor) { p.labels = labels{analyzer: analyzer, provider: provider} }
}

// WithBatchObserver is called after each document of a batch, in order.
func WithBatchObserver(fn func(done, total int, r Result)) Option {
	return func(p *Processor) { p.observe = fn }
}

func NewProcessor(analyzer analysis.Analyzer, completer llm.Completer, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		analyzer:  analyzer,
		completer: completer,
		renderer:  markdown.NewRenderer(false, logger),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the full pipeline for one document. It never panics and never
// returns a partial reply: on any failure Result.Err is set.
func (p *Processor) Process(ctx context.Context, doc Document) (res Result) {
	start := time.Now()
	res = Result{Name: doc.Name, Type: doc.Type, JobID: uuid.New()}
	ctx = common.WithRequestID(ctx, res.JobID.String())
	ctx = common.WithDocument(ctx, doc.Name)
	log := p.logger.With("req_id", res.JobID.String(), "document", doc.Name, "doc_type", doc.Type.String())

	started := false
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline.process.panic", "panic", r, "stack", string(debug.Stack()))
			res.Err = fmt.Errorf("unexpected failure: %v", r)
			res.Reply = ""
		}
		res.Duration = time.Since(start)
		if started {
			p.finishJob(ctx, log, res)
		}
		if res.Err != nil {
			log.Error("pipeline.process.failed", "error", res.Err, "elapsed_ms", res.Duration.Milliseconds())
			return
		}
		log.Info("pipeline.process.ok",
			"pages", res.Pages,
			"tables", res.Tables,
			"reply_chars", len(res.Reply),
			"elapsed_ms", res.Duration.Milliseconds(),
		)
	}()

	if p.analyzer == nil {
		res.Err = common.NewConfigurationError("document analyzer is not configured", nil)
		return res
	}
	if p.completer == nil {
		res.Err = common.NewConfigurationError("LLM completer is not configured", nil)
		return res
	}

	log.Info("pipeline.process.start", "bytes", len(doc.Data))
	started = p.startJob(ctx, log, res.JobID, doc)

	rendered, err := p.render(ctx, log, doc)
	if err != nil {
		res.Err = err
		return res
	}
	res.Pages, res.Tables = rendered.Pages, rendered.Tables
	if started {
		if err := p.jobs.MarkAnalyzed(ctx, res.JobID, res.Pages, res.Tables); err != nil {
			log.Warn("pipeline.job.mark_analyzed_error", "error", err)
		}
	}

	prompt := prompts.Select(doc.Type, rendered.Markdown)
	log.Debug("pipeline.prompt.selected", "template", prompts.TemplateName(doc.Type), "prompt_chars", len(prompt))

	completion, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		res.Err = externalError("LLM", err)
		return res
	}
	log.Debug("pipeline.llm.ok", "model", completion.Model, "reply_chars", len(completion.Content))
	res.Reply = completion.Content
	return res
}

// Render runs analysis and markdown rendering only, without calling the LLM.
func (p *Processor) Render(ctx context.Context, doc Document) (Rendered, error) {
	reqID := uuid.New().String()
	ctx = common.WithRequestID(ctx, reqID)
	log := p.logger.With("req_id", reqID, "document", doc.Name)
	if p.analyzer == nil {
		return Rendered{}, common.NewConfigurationError("document analyzer is not configured", nil)
	}
	return p.render(ctx, log, doc)
}

// ProcessBatch processes docs strictly in order. A failed document never stops the
// batch; once ctx is done the remaining documents fail with the context error.
func (p *Processor) ProcessBatch(ctx context.Context, docs []Document) []Result {
	results := make([]Result, 0, len(docs))
	for i, doc := range docs {
		var r Result
		if err := ctx.Err(); err != nil {
			r = Result{Name: doc.Name, Type: doc.Type, Err: err}
		} else {
			p.logger.Info("pipeline.batch.document", "index", i+1, "total", len(docs), "document", doc.Name)
			r = p.Process(ctx, doc)
		}
		results = append(results, r)
		p.notify(i+1, len(docs), r)
	}
	return results
}

// ProcessPaths is ProcessBatch over files on disk. Each file is read just before it is
// processed; an unreadable file fails on its own like any other document.
func (p *Processor) ProcessPaths(ctx context.Context, paths []string, dt constants.DocumentType) []Result {
	results := make([]Result, 0, len(paths))
	for i, path := range paths {
		r := Result{Name: filepath.Base(path), Type: dt, Err: ctx.Err()}
		if r.Err == nil {
			doc, err := ReadDocument(path, dt)
			if err != nil {
				p.logger.Error("pipeline.batch.read_error", "path", path, "error", err)
				r.Err = err
			} else {
				p.logger.Info("pipeline.batch.document", "index", i+1, "total", len(paths), "document", doc.Name)
				r = p.Process(ctx, doc)
			}
		}
		results = append(results, r)
		p.notify(i+1, len(paths), r)
	}
	return results
}

func (p *Processor) notify(done, total int, r Result) {
	if p.observe != nil {
		p.observe(done, total, r)
	}
}

func (p *Processor) render(ctx context.Context, log *slog.Logger, doc Document) (Rendered, error) {
	path, cleanup, err := p.writeTemp(log, doc.Data)
	if err != nil {
		return Rendered{}, fmt.Errorf("stage upload: %w", err)
	}
	defer cleanup()

	res, err := p.analyzer.Analyze(ctx, path)
	if err != nil {
		return Rendered{}, externalError("document analysis", err)
	}
	if res == nil {
		res = &analysis.Result{}
	}

	text := extract.ExtractText(res)
	tables := extract.ExtractTables(res)
	md := p.renderer.Render(text, tables)
	log.Info("pipeline.analyze.ok", "pages", len(text), "tables", len(tables), "markdown_chars", len(md))
	return Rendered{Markdown: md, Pages: len(text), Tables: len(tables)}, nil
}

// writeTemp stages data in a uniquely named .pdf file. The returned cleanup removes it.
func (p *Processor) writeTemp(log *slog.Logger, data []byte) (string, func(), error) {
	f, err := os.CreateTemp(p.tempDir, "invoice-*.pdf")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("pipeline.tempfile.remove_error", "path", path, "error", err)
			return
		}
		log.Debug("pipeline.tempfile.removed", "path", path)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, err
	}
	log.Debug("pipeline.tempfile.created", "path", path, "bytes", len(data))
	return path, cleanup, nil
}

func (p *Processor) startJob(ctx context.Context, log *slog.Logger, id uuid.UUID, doc Document) bool {
	if p.jobs == nil {
		return false
	}
	err := p.jobs.Start(ctx, repository.Job{
		ID:        id,
		FileName:  doc.Name,
		DocType:   doc.Type.String(),
		Analyzer:  p.labels.analyzer,
		Provider:  p.labels.provider,
		SizeBytes: int64(len(doc.Data)),
	})
	if err != nil {
		log.Warn("pipeline.job.start_error", "error", err)
		return false
	}
	return true
}

func (p *Processor) finishJob(ctx context.Context, log *slog.Logger, res Result) {
	out := repository.JobOutcome{Status: constants.JobStatusSucceeded, ReplyChars: len(res.Reply)}
	if res.Err != nil {
		out = repository.JobOutcome{Status: constants.JobStatusFailed, ErrorMessage: res.Err.Error()}
	}
	// the job row is written even when the caller's context was canceled
	if err := p.jobs.Finish(context.WithoutCancel(ctx), res.JobID, out); err != nil {
		log.Warn("pipeline.job.finish_error", "error", err)
	}
}

// externalError keeps already classified errors and tags the rest as failures of service.
func externalError(service string, err error) error {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return common.NewExternalServiceError(service, err)
}
