// Package analysis defines the layout analysis result consumed by the extractors
// and the Analyzer contract implemented by the Azure and local backends.
package analysis

import "context"

// CellKindColumnHeader marks a table cell as part of the header row.
const CellKindColumnHeader = "columnHeader"

// Result is the hierarchical output of a layout analysis call.
type Result struct {
	Pages      []Page
	Paragraphs []Paragraph
	Tables     []Table
}

type Page struct {
	PageNumber int
	Lines      []Line
}

type Line struct {
	Content string
}

type Span struct {
	Offset int
	Length int
}

type BoundingRegion struct {
	PageNumber int
}

// Paragraph is a text block. Role is nil when the service did not classify it.
type Paragraph struct {
	Content         string
	Role            *string
	Spans           []Span
	BoundingRegions []BoundingRegion
}

// FirstOffset is the offset of the first span, or 0 without spans.
func (p Paragraph) FirstOffset() int {
	if len(p.Spans) == 0 {
		return 0
	}
	return p.Spans[0].Offset
}

type Table struct {
	RowCount        int
	ColumnCount     int
	BoundingRegions []BoundingRegion
	Cells           []Cell
}

// Cell is one table cell. Kind and ColumnSpan are nil when absent.
type Cell struct {
	RowIndex    int
	ColumnIndex int
	Content     string
	Kind        *string
	ColumnSpan  *int
}

// Analyzer turns a PDF on disk into a Result.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*Result, error)
}

// Empty reports whether the result carries no text and no tables.
func (r *Result) Empty() bool {
	return r == nil || (len(r.Pages) == 0 && len(r.Paragraphs) == 0 && len(r.Tables) == 0)
}
