// Package app wires the configured analyzer, LLM provider and job store into a
// pipeline.Processor for the command-line entry points.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/invoice-parser/internal/analysis"
	"github.com/joseph-ayodele/invoice-parser/internal/analysis/azure"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/llm"
	"github.com/joseph-ayodele/invoice-parser/internal/llm/providers"
	"github.com/joseph-ayodele/invoice-parser/internal/markdown"
	"github.com/joseph-ayodele/invoice-parser/internal/ocr"
	"github.com/joseph-ayodele/invoice-parser/internal/pipeline"
	"github.com/joseph-ayodele/invoice-parser/internal/repository"
)

type Options struct {
	// AnalyzeOnly skips the LLM provider; only Processor.Render is usable.
	AnalyzeOnly bool
	// BatchObserver is handed to the processor, see pipeline.WithBatchObserver.
	BatchObserver func(done, total int, r pipeline.Result)
}

type App struct {
	Config    *common.Config
	Processor *pipeline.Processor
	Jobs      repository.JobRepository
	DB        *repository.DB // nil when JOB_STORE_DRIVER=none

	closers []func() error
	logger  *slog.Logger
}

// New validates cfg and builds every component before any document is touched.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var err error
	if opts.AnalyzeOnly {
		err = cfg.Analyzer.Validate()
	} else {
		err = cfg.Validate()
	}
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, logger: logger, Jobs: repository.NopJobRepository{}}

	analyzer, err := NewAnalyzer(cfg, logger)
	if err != nil {
		return nil, err
	}

	var completer llm.Completer
	if !opts.AnalyzeOnly {
		c, closeFn, err := providers.New(ctx, cfg.LLM, logger)
		if err != nil {
			return nil, err
		}
		completer = c
		a.closers = append(a.closers, closeFn)
	}

	if cfg.Store.Driver != common.StoreNone && cfg.Store.Driver != "" {
		db, jobs, err := OpenJobStore(ctx, cfg.Store, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.DB, a.Jobs = db, jobs
	}

	a.Processor = pipeline.NewProcessor(analyzer, completer, logger,
		pipeline.WithRenderer(markdown.NewRenderer(cfg.Render.EscapeCells, logger)),
		pipeline.WithJobRecorder(a.Jobs),
		pipeline.WithTempDir(cfg.TempDir),
		pipeline.WithLabels(cfg.Analyzer.Backend, cfg.LLM.Provider),
		pipeline.WithBatchObserver(opts.BatchObserver),
	)
	return a, nil
}

// NewAnalyzer returns the layout backend selected by ANALYZER.
func NewAnalyzer(cfg *common.Config, logger *slog.Logger) (analysis.Analyzer, error) {
	switch cfg.Analyzer.Backend {
	case common.AnalyzerAzure:
		c, err := azure.NewClient(azure.Config{
			Endpoint:     cfg.Analyzer.Endpoint,
			Key:          cfg.Analyzer.Key,
			Model:        cfg.Analyzer.Model,
			APIVersion:   cfg.Analyzer.APIVersion,
			PollInterval: cfg.Analyzer.PollInterval,
			MaxPolls:     cfg.Analyzer.MaxPolls,
			Timeout:      cfg.Analyzer.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return c, nil
	case common.AnalyzerLocal:
		return ocr.NewExtractor(ocr.Config{
			TesseractLang: cfg.OCR.TesseractLang,
			DPI:           cfg.OCR.DPI,
			MaxPages:      cfg.OCR.MaxPages,
			TessdataDir:   cfg.OCR.TessdataDir,
			PSM:           6,
		}, logger), nil
	}
	return nil, common.NewConfigurationError(fmt.Sprintf("unknown ANALYZER %q", cfg.Analyzer.Backend), nil)
}

// OpenJobStore connects to the job store and creates its table.
func OpenJobStore(ctx context.Context, cfg common.StoreConfig, logger *slog.Logger) (*repository.DB, repository.JobRepository, error) {
	db, err := repository.Open(ctx, repository.Config{
		Driver:          cfg.Driver,
		DSN:             cfg.DSN,
		MaxConns:        cfg.MaxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open job store: %w", err)
	}
	jobs := repository.NewJobRepository(db, logger)
	if err := jobs.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, jobs, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Warn("close error", "error", err)
		}
	}
	a.closers = nil
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}
