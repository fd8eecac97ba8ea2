package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-parser/internal/analysis"
)

func ptr[T any](v T) *T { return &v }

func para(content string, offset int, pages ...int) analysis.Paragraph {
	p := analysis.Paragraph{Content: content, Spans: []analysis.Span{{Offset: offset, Length: len(content)}}}
	for _, n := range pages {
		p.BoundingRegions = append(p.BoundingRegions, analysis.BoundingRegion{PageNumber: n})
	}
	return p
}

func contents(items []TextItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Content)
	}
	return out
}

func TestExtractTextOrdersParagraphsBySpanOffset(t *testing.T) {
	res := &analysis.Result{Paragraphs: []analysis.Paragraph{
		para("fifty", 50, 1),
		para("ten", 10, 1),
		para("thirty", 30, 1),
	}}

	got := ExtractText(res)
	assert.Equal(t, []string{"ten", "thirty", "fifty"}, contents(got[1]))
}

func TestExtractTextParagraphWithoutSpansSortsFirst(t *testing.T) {
	noSpan := analysis.Paragraph{Content: "header", BoundingRegions: []analysis.BoundingRegion{{PageNumber: 1}}}
	res := &analysis.Result{Paragraphs: []analysis.Paragraph{para("body", 5, 1), noSpan}}

	assert.Equal(t, []string{"header", "body"}, contents(ExtractText(res)[1]))
}

func TestExtractTextReplicatesAcrossPages(t *testing.T) {
	p := para("Carried forward", 0, 1, 2)
	p.Role = ptr("pageFooter")
	res := &analysis.Result{Paragraphs: []analysis.Paragraph{p, para("Only two", 20, 2)}}

	got := ExtractText(res)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Carried forward"}, contents(got[1]))
	assert.Equal(t, []string{"Carried forward", "Only two"}, contents(got[2]))
	assert.Equal(t, KindParagraph, got[2][0].Kind)
	require.NotNil(t, got[1][0].Role)
	assert.Equal(t, "pageFooter", *got[1][0].Role)
	assert.Nil(t, got[2][1].Role)
}

func TestExtractTextLineFallback(t *testing.T) {
	res := &analysis.Result{Pages: []analysis.Page{
		{PageNumber: 1, Lines: []analysis.Line{{Content: "a"}, {Content: "b"}}},
		{PageNumber: 2},
	}}

	got := ExtractText(res)
	require.Len(t, got, 2)
	assert.Equal(t, []string{"a", "b"}, contents(got[1]))
	assert.Equal(t, KindLine, got[1][0].Kind)
	assert.Nil(t, got[1][0].Role)
	assert.NotNil(t, got[2])
	assert.Empty(t, got[2])
}

func TestExtractTextNeverMixesSources(t *testing.T) {
	res := &analysis.Result{
		Paragraphs: []analysis.Paragraph{para("para", 0, 1)},
		Pages:      []analysis.Page{{PageNumber: 1, Lines: []analysis.Line{{Content: "line"}}}, {PageNumber: 2}},
	}

	got := ExtractText(res)
	require.Len(t, got, 1)
	for _, items := range got {
		for _, it := range items {
			assert.Equal(t, KindParagraph, it.Kind)
		}
	}
}

func TestExtractTextParagraphsWithoutRegionsFallBackToLines(t *testing.T) {
	res := &analysis.Result{
		Paragraphs: []analysis.Paragraph{{Content: "floating"}},
		Pages:      []analysis.Page{{PageNumber: 1, Lines: []analysis.Line{{Content: "line"}}}},
	}
	assert.Equal(t, []string{"line"}, contents(ExtractText(res)[1]))
}

func TestExtractTextEmpty(t *testing.T) {
	assert.Empty(t, ExtractText(&analysis.Result{}))
	assert.Empty(t, ExtractText(nil))
}

func TestPageNumbersSorted(t *testing.T) {
	text := ExtractedText{3: nil, 1: nil, 10: nil, 2: nil}
	assert.Equal(t, []int{1, 2, 3, 10}, text.PageNumbers())
}

func TestExtractTables(t *testing.T) {
	res := &analysis.Result{Tables: []analysis.Table{
		{
			RowCount:    2,
			ColumnCount: 2,
			BoundingRegions: []analysis.BoundingRegion{
				{PageNumber: 2}, {PageNumber: 1}, {PageNumber: 2},
			},
			Cells: []analysis.Cell{
				{RowIndex: 0, ColumnIndex: 0, Content: "Date", Kind: ptr(analysis.CellKindColumnHeader)},
				{RowIndex: 0, ColumnIndex: 1, Content: "Hours", Kind: ptr("rowHeader")},
				{RowIndex: 1, ColumnIndex: 0, Content: "01/07", ColumnSpan: ptr(2)},
				{RowIndex: 1, ColumnIndex: 1, Content: "8", ColumnSpan: ptr(0)},
			},
		},
		{RowCount: 0, ColumnCount: 0},
	}}

	got := ExtractTables(res)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, []int{2, 1}, first.PageNumbers)
	require.Len(t, first.Cells, 4)
	assert.True(t, first.Cells[0].IsHeader)
	assert.False(t, first.Cells[1].IsHeader)
	assert.Equal(t, 1, first.Cells[0].ColSpan)
	assert.Equal(t, 2, first.Cells[2].ColSpan)
	assert.Equal(t, 1, first.Cells[3].ColSpan)

	assert.Equal(t, 1, got[1].ID)
	assert.Empty(t, got[1].Cells)
	assert.Empty(t, got[1].PageNumbers)
}

func TestExtractTablesNone(t *testing.T) {
	assert.Empty(t, ExtractTables(&analysis.Result{}))
	assert.Empty(t, ExtractTables(nil))
}
