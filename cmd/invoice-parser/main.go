package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/app"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/export"
	"github.com/joseph-ayodele/invoice-parser/internal/ingest"
	"github.com/joseph-ayodele/invoice-parser/internal/pipeline"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		configPath   = flag.String("config", "", "YAML config file (environment variables win)")
		dir          = flag.String("dir", "", "directory to scan for PDFs, in addition to file arguments")
		docType      = flag.String("type", constants.DocTypeInvoice.String(), "document type: "+typeChoices())
		out          = flag.String("out", "", "write the report to this file instead of stdout")
		xlsxOut      = flag.String("xlsx", "", "also write reply tables to this XLSX workbook")
		markdownOnly = flag.Bool("markdown-only", false, "print the extracted markdown without calling the LLM")
		noProgress   = flag.Bool("no-progress", false, "disable the progress bar")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Usage = func() {
		printError("usage: invoice-parser [flags] [file.pdf ...]\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	// Setup logger; stdout carries the report
	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, runConfig{
		configPath:   *configPath,
		dir:          *dir,
		files:        flag.Args(),
		docType:      constants.ParseDocumentType(*docType),
		out:          *out,
		xlsxOut:      *xlsxOut,
		markdownOnly: *markdownOnly,
		progress:     !*noProgress,
	}, logger); err != nil {
		printError("Error: %v\n", err)
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		os.Exit(1)
	}
}

var errUsage = errors.New("no PDF files given; pass file arguments or --dir")

type runConfig struct {
	configPath   string
	dir          string
	files        []string
	docType      constants.DocumentType
	out          string
	xlsxOut      string
	markdownOnly bool
	progress     bool
}

func run(ctx context.Context, rc runConfig, logger *slog.Logger) error {
	paths, err := collectPaths(ctx, rc.dir, rc.files, logger)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errUsage
	}

	cfg, err := common.LoadConfigFile(rc.configPath)
	if err != nil {
		return err
	}
	logger.Info("document type selected", "type", rc.docType.String(), "files", len(paths))

	var bar *progressbar.ProgressBar
	opts := app.Options{AnalyzeOnly: rc.markdownOnly}
	if rc.progress && !rc.markdownOnly {
		bar = getProgressBar(len(paths), "Processing files...")
		opts.BatchObserver = func(_, _ int, _ pipeline.Result) { _ = bar.Add(1) }
	}

	a, err := app.New(ctx, cfg, logger, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	w, closeOut, err := output(rc.out)
	if err != nil {
		return err
	}
	defer closeOut()

	if rc.markdownOnly {
		if failed := runMarkdownOnly(ctx, a.Processor, paths, rc.docType, w); failed > 0 {
			return fmt.Errorf("%d of %d files failed", failed, len(paths))
		}
		return nil
	}

	results := a.Processor.ProcessPaths(ctx, paths, rc.docType)
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}

	if err := pipeline.WriteReport(w, results); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if rc.xlsxOut != "" {
		if err := writeWorkbook(rc.xlsxOut, results, logger); err != nil {
			return err
		}
	}

	ok, failed := pipeline.Summary(results)
	logger.Info("batch processing complete", "succeeded", ok, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%s", color.YellowString("%d of %d files failed", failed, len(results)))
	}
	color.New(color.FgGreen).Fprintln(os.Stderr, "All files processed successfully!")
	return nil
}

// collectPaths returns the explicit file arguments followed by the PDFs found under dir.
func collectPaths(ctx context.Context, dir string, files []string, logger *slog.Logger) ([]string, error) {
	paths := append([]string(nil), files...)
	if dir == "" {
		return paths, nil
	}
	found, stats, err := ingest.ScanDirectory(ctx, dir, true, nil, logger)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, c := range found {
		if c.Err != "" {
			continue
		}
		paths = append(paths, c.Path)
	}
	logger.Info("directory scanned", "dir", dir, "matched", stats.Matched, "failed", stats.Failed)
	return paths, nil
}

func runMarkdownOnly(ctx context.Context, proc *pipeline.Processor, paths []string, dt constants.DocumentType, w io.Writer) (failed int) {
	for _, path := range paths {
		doc, err := pipeline.ReadDocument(path, dt)
		if err == nil {
			var rendered pipeline.Rendered
			rendered, err = proc.Render(ctx, doc)
			if err == nil {
				fmt.Fprintf(w, "## Processing: %s\n\n%s\n", doc.Name, rendered.Markdown)
				fmt.Fprintf(w, "Extracted content from %d pages and %d tables.\n\n%s\n\n", rendered.Pages, rendered.Tables, pipeline.Divider)
				continue
			}
		}
		failed++
		fmt.Fprintf(w, "## Processing: %s\n\n%s%v\n\n%s\n\n", filepath.Base(path), constants.ErrorReplyPrefix, err, pipeline.Divider)
	}
	return failed
}

func writeWorkbook(path string, results []pipeline.Result, logger *slog.Logger) error {
	replies := make([]export.Reply, 0, len(results))
	for _, r := range results {
		replies = append(replies, export.Reply{Document: r.Name, Content: r.Output(), Failed: r.Err != nil})
	}
	raw, err := export.NewService(logger).WorkbookXLSX(replies)
	if err != nil {
		return fmt.Errorf("build workbook: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	logger.Info("workbook written", "path", path)
	return nil
}

func output(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() {
		if err := f.Close(); err != nil {
			printError("Error: closing %s: %v\n", path, err)
		}
	}, nil
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func typeChoices() string {
	names := make([]string, 0, len(constants.DocumentTypes))
	for _, dt := range constants.DocumentTypes {
		names = append(names, fmt.Sprintf("%q", dt.String()))
	}
	return strings.Join(names, ", ")
}
