package markdown

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/invoice-parser/internal/extract"
)

func cellsOf(rc ...any) []extract.TableCell {
	var out []extract.TableCell
	for i := 0; i+2 < len(rc); i += 3 {
		out = append(out, extract.TableCell{RowIndex: rc[i].(int), ColumnIndex: rc[i+1].(int), Content: rc[i+2].(string), ColSpan: 1})
	}
	return out
}

func TestFormatTableGrid(t *testing.T) {
	tbl := extract.ExtractedTable{
		RowCount:    2,
		ColumnCount: 2,
		Cells:       cellsOf(0, 0, "A", 0, 1, "B", 1, 0, "C", 1, 1, "D"),
	}
	assert.Equal(t, "| A | B |\n| --- | --- |\n| C | D |", FormatTable(tbl))
}

func TestFormatTableEmpty(t *testing.T) {
	assert.Equal(t, "Empty table", FormatTable(extract.ExtractedTable{RowCount: 3, ColumnCount: 3}))
	assert.Equal(t, "Empty table", FormatTable(extract.ExtractedTable{Cells: cellsOf(0, 0, "x")}))
}

func TestFormatTableZeroColumns(t *testing.T) {
	tbl := extract.ExtractedTable{RowCount: 3, ColumnCount: 0, Cells: cellsOf(0, 0, "A", 1, 0, "B")}
	assert.Equal(t, EmptyTable, FormatTable(tbl))

	tbl.ColumnCount = -1
	assert.Equal(t, EmptyTable, FormatTable(tbl))
}

func TestFormatTableLastWriteWins(t *testing.T) {
	tbl := extract.ExtractedTable{
		RowCount:    1,
		ColumnCount: 2,
		Cells:       cellsOf(0, 0, "first", 0, 1, "B", 0, 0, "second"),
	}
	assert.Equal(t, "| second | B |\n| --- | --- |", FormatTable(tbl))
}

func TestFormatTableSparseGridKeepsShape(t *testing.T) {
	tbl := extract.ExtractedTable{
		RowCount:    3,
		ColumnCount: 3,
		Cells:       cellsOf(0, 0, "Name", 2, 2, "x"),
	}
	want := strings.Join([]string{
		"| Name |  |  |",
		"| --- | --- | --- |",
		"|  |  |  |",
		"|  |  | x |",
	}, "\n")
	assert.Equal(t, want, FormatTable(tbl))
}

func TestFormatTableOutOfRangeCellSkipped(t *testing.T) {
	var logs bytes.Buffer
	r := NewRenderer(false, slog.New(slog.NewTextHandler(&logs, nil)))
	tbl := extract.ExtractedTable{
		ID:          4,
		RowCount:    1,
		ColumnCount: 2,
		Cells:       cellsOf(0, 0, "A", 0, 1, "B", 1, 0, "stray", 0, 5, "wide"),
	}

	assert.Equal(t, "| A | B |\n| --- | --- |", r.FormatTable(tbl))
	assert.Equal(t, 2, strings.Count(logs.String(), "markdown.table.cell_out_of_range"))
	assert.Contains(t, logs.String(), "table_id=4")
}

func TestFormatTableEscapeCells(t *testing.T) {
	tbl := extract.ExtractedTable{RowCount: 1, ColumnCount: 2, Cells: cellsOf(0, 0, "a|b", 0, 1, "line1\nline2")}

	assert.Equal(t, "| a|b | line1\nline2 |\n| --- | --- |", FormatTable(tbl))
	assert.Equal(t, "| a\\|b | line1<br>line2 |\n| --- | --- |", NewRenderer(true, nil).FormatTable(tbl))
}

func TestRenderDocument(t *testing.T) {
	text := extract.ExtractedText{
		2: {{Kind: extract.KindParagraph, Content: "Page two body"}},
		1: {{Kind: extract.KindParagraph, Content: "Invoice 42"}, {Kind: extract.KindParagraph, Content: "ACME"}},
	}
	tables := []extract.ExtractedTable{
		{ID: 0, RowCount: 1, ColumnCount: 1, PageNumbers: []int{1, 2}, Cells: cellsOf(0, 0, "Total")},
		{ID: 1, RowCount: 2, ColumnCount: 2, PageNumbers: []int{2}},
	}

	want := "# Extracted PDF Content\n" +
		"## Text Content\n" +
		"### Page 1\n" +
		"Invoice 42\n" +
		"ACME\n" +
		"\n" +
		"### Page 2\n" +
		"Page two body\n" +
		"\n" +
		"## Tables\n" +
		"### Table 1\n" +
		"*Pages: 1, 2*\n\n" +
		"| Total |\n| --- |" +
		"\n\n" +
		"### Table 2\n" +
		"*Pages: 2*\n\n" +
		"Empty table" +
		"\n\n"
	assert.Equal(t, want, Render(text, tables))
}

func TestRenderPageOrderNumeric(t *testing.T) {
	text := extract.ExtractedText{}
	for _, p := range []int{10, 2, 1, 33, 3} {
		text[p] = []extract.TextItem{}
	}
	md := Render(text, nil)

	var order []int
	idx := -1
	for _, p := range []string{"### Page 1\n", "### Page 2\n", "### Page 3\n", "### Page 10\n", "### Page 33\n"} {
		i := strings.Index(md, p)
		assert.Greater(t, i, idx, p)
		idx = i
		order = append(order, i)
	}
	assert.Len(t, order, 5)
	assert.NotContains(t, md, "## Tables")
}

func TestRenderEmpty(t *testing.T) {
	assert.Equal(t, "# Extracted PDF Content\n## Text Content\n", Render(nil, nil))
}
