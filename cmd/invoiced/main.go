package main

import (
	"context"
	"flag"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/app"
	"github.com/joseph-ayodele/invoice-parser/internal/async"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/export"
	"github.com/joseph-ayodele/invoice-parser/internal/ingest"
	"github.com/joseph-ayodele/invoice-parser/internal/server"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (environment variables win)")
	docType := flag.String("type", constants.DocTypeCombined.String(), "document type for files directly in the inbox")
	flag.Parse()

	// Setup structured logger that outputs messages with variables but no time/level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfigFile(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Server.InboxDir == "" {
		logger.Error("missing INBOX_DIR environment variable")
		os.Exit(2)
	}
	inbox, err := filepath.Abs(cfg.Server.InboxDir)
	if err != nil {
		logger.Error("invalid INBOX_DIR", "error", err)
		os.Exit(2)
	}
	outbox := cfg.Server.OutboxDir
	if outbox == "" {
		outbox = filepath.Join(filepath.Dir(inbox), "outbox")
	}
	if err := os.MkdirAll(outbox, 0o755); err != nil {
		logger.Error("failed to create outbox", "outbox", outbox, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	lis, err := net.Listen("tcp", cfg.Server.HealthAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.HealthAddr, "error", err)
		os.Exit(1)
	}
	hs := server.NewHealthServer(logger)
	serveDone := make(chan struct{})
	go func() {
		defer close(serveDone)
		if err := hs.Serve(ctx, lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
		}
	}()
	if a.DB != nil {
		go hs.Probe(ctx, server.ServiceJobStore, 30*time.Second, func(ctx context.Context) error {
			return a.DB.HealthCheck(ctx, cfg.Store.DialTimeout)
		})
	}

	d := &daemon{
		inbox:    inbox,
		outbox:   outbox,
		fallback: constants.ParseDocumentType(*docType),
		proc:     a.Processor,
		xlsx:     export.NewService(logger),
		logger:   logger,
	}
	queue := async.NewProcessorQueue(d.handle, logger,
		async.WithQueueSize(64),
		async.WithProcessTimeout(15*time.Minute),
	)

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{inbox},
		InitialScan: true,
		Debounce:    cfg.Server.Debounce,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("failed to start watcher", "inbox", inbox, "error", err)
		os.Exit(1)
	}
	hs.SetServing(server.ServiceWatcher, true)
	hs.SetServing("", true)
	logger.Info("invoiced watching inbox", "inbox", inbox, "outbox", outbox, "health_addr", lis.Addr().String())

	for events != nil {
		select {
		case p, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			d.submit(ctx, queue, p)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher reported error", "error", err)
		}
	}

	hs.SetServing(server.ServiceWatcher, false)
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	queue.Shutdown(shutdownCtx)
	<-serveDone
	logger.Info("stopped")
}

// submit fingerprints a new inbox file and queues it unless identical content was seen before.
func (d *daemon) submit(ctx context.Context, q async.Queue, path string) {
	c, err := ingest.Inspect(path)
	if err != nil {
		d.logger.Warn("skipping inbox file", "path", path, "error", err)
		return
	}
	if first, seen := d.dedup.Mark(c); seen {
		d.logger.Info("duplicate content, skipping", "path", c.Path, "first_seen", first)
		return
	}
	job := async.Job{
		Path:    c.Path,
		HashHex: c.HashHex,
		DocType: d.docTypeFor(c.Path),
		TraceID: uuid.NewString(),
	}
	if err := q.Enqueue(ctx, job); err != nil {
		d.dedup.Forget(c.HashHex)
		d.logger.Warn("failed to enqueue", "path", c.Path, "error", err)
	}
}
