// Package ocr is the local analysis backend. It reads the PDF text layer and,
// for scanned documents without one, rasterizes pages and runs tesseract.
// It only produces pages and lines; paragraphs and tables need the remote service.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/analysis"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // 0 = no limit
	TessdataDir   string

	PSM int // e.g., 6 is good for uniform block of text
}

const (
	MethodTextLayer = "pdf-text"
	MethodOCR       = "pdf-ocr"
)

// textLayerFunc returns the text lines of each page, in page order.
type textLayerFunc func(path string, maxPages int) ([][]string, error)

type Extractor struct {
	cfg       Config
	runner    Runner
	textLayer textLayerFunc
	logger    *slog.Logger
}

var _ analysis.Analyzer = (*Extractor)(nil)

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: execRunner{logger: logger}, textLayer: tabulaTextLayer, logger: logger}
}

// Analyze prefers the embedded text layer and falls back to OCR when no page has text.
func (e *Extractor) Analyze(ctx context.Context, path string) (*analysis.Result, error) {
	start := time.Now()
	if ext := filepath.Ext(path); !constants.IsAllowedExt(ext) {
		e.logger.Error("unsupported ocr extension", "extension", ext)
		return nil, fmt.Errorf("unsupported extension: %q", ext)
	}

	pages, err := e.textLayer(path, e.cfg.MaxPages)
	if err != nil {
		e.logger.Warn("ocr.text_layer.failed", "path", path, "error", err)
	}
	method := MethodTextLayer
	if !hasText(pages) {
		e.logger.Debug("ocr.text_layer.empty", "path", path, "pages", len(pages))
		pages, err = e.pdfToOCR(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("ocr %s: %w", filepath.Base(path), err)
		}
		method = MethodOCR
	}

	res := toResult(pages)
	e.logger.Info("ocr.analyze.ok",
		"path", path,
		"method", method,
		"pages", len(res.Pages),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func hasText(pages [][]string) bool {
	for _, lines := range pages {
		if len(lines) > 0 {
			return true
		}
	}
	return false
}

func toResult(pages [][]string) *analysis.Result {
	res := &analysis.Result{Pages: make([]analysis.Page, 0, len(pages))}
	for i, lines := range pages {
		p := analysis.Page{PageNumber: i + 1, Lines: make([]analysis.Line, 0, len(lines))}
		for _, l := range lines {
			p.Lines = append(p.Lines, analysis.Line{Content: l})
		}
		res.Pages = append(res.Pages, p)
	}
	return res
}
