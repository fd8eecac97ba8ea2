// Package markdown renders extracted text and tables into the single markdown
// document handed to the LLM. Output is byte-for-byte deterministic.
package markdown

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/invoice-parser/internal/extract"
)

// EmptyTable stands in for a table with no cells or a degenerate declared grid.
const EmptyTable = "Empty table"

// Renderer holds rendering switches. The zero value renders cell text verbatim.
type Renderer struct {
	// EscapeCells escapes '|' and newlines inside cell text so the column count stays intact.
	EscapeCells bool

	logger *slog.Logger
}

// NewRenderer returns a Renderer that logs skipped cells to logger.
func NewRenderer(escapeCells bool, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{EscapeCells: escapeCells, logger: logger}
}

var defaultRenderer = &Renderer{}

// Render uses the default renderer.
func Render(text extract.ExtractedText, tables []extract.ExtractedTable) string {
	return defaultRenderer.Render(text, tables)
}

// FormatTable uses the default renderer.
func FormatTable(t extract.ExtractedTable) string {
	return defaultRenderer.FormatTable(t)
}

// Render produces the document: a title, a text section with one block per page
// in ascending page order, then a tables section when there are tables.
func (r *Renderer) Render(text extract.ExtractedText, tables []extract.ExtractedTable) string {
	var b strings.Builder
	b.WriteString("# Extracted PDF Content\n")
	b.WriteString("## Text Content\n")
	for _, page := range text.PageNumbers() {
		fmt.Fprintf(&b, "### Page %d\n", page)
		for _, item := range text[page] {
			b.WriteString(item.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(tables) > 0 {
		b.WriteString("## Tables\n")
		for i, t := range tables {
			fmt.Fprintf(&b, "### Table %d\n", i+1)
			fmt.Fprintf(&b, "*Pages: %s*\n\n", joinInts(t.PageNumbers))
			b.WriteString(r.FormatTable(t))
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ", ")
}
