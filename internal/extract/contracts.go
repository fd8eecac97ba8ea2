// Package extract flattens an analysis.Result into page-bucketed text and
// per-table cell lists ready for markdown rendering.
package extract

import "sort"

// ItemKind records which strategy produced a TextItem.
type ItemKind string

const (
	KindParagraph ItemKind = "paragraph"
	KindLine      ItemKind = "line"
)

// TextItem is one unit of text on a page. Role is only ever set on paragraphs.
type TextItem struct {
	Kind    ItemKind
	Content string
	Role    *string
}

// ExtractedText maps a 1-based page number to its items in reading order.
type ExtractedText map[int][]TextItem

// PageNumbers returns the keys in ascending order.
func (t ExtractedText) PageNumbers() []int {
	out := make([]int, 0, len(t))
	for p := range t {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// ExtractedTable is a table flattened to its cells. ID is the table's index in the analysis result.
type ExtractedTable struct {
	ID          int
	RowCount    int
	ColumnCount int
	PageNumbers []int
	Cells       []TableCell
}

type TableCell struct {
	RowIndex    int
	ColumnIndex int
	Content     string
	IsHeader    bool
	ColSpan     int
}
