package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// pdfToOCR rasterizes every page with pdftoppm and OCRs each image. A page whose
// OCR fails stays in place with no lines so numbering is preserved.
func (e *Extractor) pdfToOCR(ctx context.Context, path string) ([][]string, error) {
	tmpDir, err := os.MkdirTemp("", "ip-pp-*")
	if err != nil {
		return nil, err
	}
	defer func(path string) {
		err := os.RemoveAll(path)
		if err != nil {
			e.logger.Warn("failed to remove temp dir", "path", path, "error", err)
		}
	}(tmpDir)

	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", strconv.Itoa(e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	args = append(args, path, prefix)
	if _, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return nil, commandError("pdftoppm", err, errb)
	}

	// pdftoppm zero-pads page numbers to equal width, so a lexical sort is page order
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, fmt.Errorf("no pages rendered")
	}

	pages := make([][]string, 0, len(matches))
	failed := 0
	for i, img := range matches {
		txt, err := e.tesseractOCR(ctx, img)
		if err != nil {
			e.logger.Warn("ocr.page.failed", "page", i+1, "error", err)
			failed++
			pages = append(pages, []string{})
			continue
		}
		pages = append(pages, splitLines(txt))
	}
	if failed == len(matches) {
		return nil, fmt.Errorf("tesseract failed on all %d pages", failed)
	}
	return pages, nil
}

func (e *Extractor) tesseractOCR(ctx context.Context, img string) (string, error) {
	// tesseract <file> stdout -l <lang>
	args := []string{img, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", commandError("tesseract", err, errb)
	}
	return string(out), nil
}
