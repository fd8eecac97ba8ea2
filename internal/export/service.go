// Package export turns LLM replies into XLSX workbooks.
package export

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Summary"
	maxSheetName  = 31
	maxColumnWide = 60
)

// Reply is one document's outcome as it goes into the workbook.
type Reply struct {
	Document string
	Content  string // LLM reply, or the error line for failed documents
	Failed   bool
}

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WorkbookXLSX returns a workbook with a Summary sheet and one sheet per reply table.
// A successful reply without any table gets a single sheet holding the raw reply in A1.
func (s *Service) WorkbookXLSX(replies []Reply) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func(f *excelize.File) {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}(f)

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	w := &workbook{f: f, bold: bold, used: map[string]bool{strings.ToLower(summarySheet): true}}
	if err := w.writeRows(summarySheet, []string{"Document", "Status", "Tables", "Sheets"}, nil); err != nil {
		return nil, err
	}

	sheets := 0
	for i, r := range replies {
		status := "OK"
		var tables []Table
		var names []string
		if r.Failed {
			status = "FAILED"
		} else {
			tables = ParseTables(r.Content)
			if len(tables) == 0 {
				name := w.sheetName(r.Document, 0)
				if err := w.writeRaw(name, r.Content); err != nil {
					return nil, err
				}
				names = append(names, name)
			}
			for ti, t := range tables {
				name := w.sheetName(r.Document, ti+1)
				if err := w.writeRows(name, t.Header, t.Rows); err != nil {
					return nil, err
				}
				names = append(names, name)
			}
		}
		sheets += len(names)

		row := []any{r.Document, status, len(tables), strings.Join(names, ", ")}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
		if r.Failed {
			note, _ := excelize.CoordinatesToCellName(5, i+2)
			if err := f.SetCellValue(summarySheet, note, r.Content); err != nil {
				return nil, err
			}
		}
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 32)
	_ = f.SetColWidth(summarySheet, "D", "E", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"documents", len(replies),
		"sheets", sheets,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

type workbook struct {
	f    *excelize.File
	bold int
	used map[string]bool
}

func (w *workbook) writeRaw(sheet, content string) error {
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	if err := w.f.SetCellValue(sheet, "A1", content); err != nil {
		return err
	}
	return w.f.SetColWidth(sheet, "A", "A", maxColumnWide)
}

// writeRows writes a bold header row followed by rows. The sheet is created when missing.
func (w *workbook) writeRows(sheet string, header []string, rows [][]string) error {
	if idx, _ := w.f.GetSheetIndex(sheet); idx == -1 {
		if _, err := w.f.NewSheet(sheet); err != nil {
			return err
		}
	}

	widths := make([]int, len(header))
	for c, h := range header {
		cell, _ := excelize.CoordinatesToCellName(c+1, 1)
		if err := w.f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		widths[c] = utf8.RuneCountInString(h)
	}
	if len(header) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		if err := w.f.SetCellStyle(sheet, "A1", last, w.bold); err != nil {
			return err
		}
	}

	for r, cells := range rows {
		for c, v := range cells {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := w.f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return err
			}
			if c < len(widths) {
				widths[c] = max(widths[c], utf8.RuneCountInString(v))
			}
		}
	}

	for c, width := range widths {
		col, _ := excelize.ColumnNumberToName(c + 1)
		_ = w.f.SetColWidth(sheet, col, col, float64(min(width+2, maxColumnWide)))
	}
	return nil
}

var invalidSheetChars = strings.NewReplacer(":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "(", "]", ")")

// sheetName derives a unique Excel sheet name from the document name and table index.
// Index 0 means the reply had no table.
func (w *workbook) sheetName(document string, index int) string {
	stem := strings.TrimSuffix(filepath.Base(document), filepath.Ext(document))
	stem = strings.TrimSpace(invalidSheetChars.Replace(stem))
	if stem == "" {
		stem = "Document"
	}
	suffix := ""
	if index > 0 {
		suffix = " T" + strconv.Itoa(index)
	}

	name := truncateRunes(stem, maxSheetName-len(suffix)) + suffix
	for n := 2; w.used[strings.ToLower(name)]; n++ {
		dup := fmt.Sprintf("%s~%d", suffix, n)
		name = truncateRunes(stem, maxSheetName-len(dup)) + dup
	}
	w.used[strings.ToLower(name)] = true
	return name
}

var plainNumber = regexp.MustCompile(`^-?(0|[1-9]\d{0,2}(,\d{3})*|[1-9]\d*)(\.\d+)?$`)

// cellValue stores plain numbers as numbers so totals can be summed. Codes with
// leading zeros stay text.
func cellValue(v string) any {
	if !plainNumber.MatchString(v) {
		return v
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return v
	}
	return f
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
