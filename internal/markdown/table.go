package markdown

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
	"github.com/joseph-ayodele/invoice-parser/internal/extract"
)

// FormatTable lays the cells onto a RowCount x ColumnCount grid and renders it
// as a pipe table whose first grid row is the header.
//
// When two cells share a coordinate the later one wins. Cells outside the
// declared grid are skipped and logged; the grid is never resized. A grid with
// no rows or no columns renders as EmptyTable.
func (r *Renderer) FormatTable(t extract.ExtractedTable) string {
	if len(t.Cells) == 0 || t.RowCount <= 0 || t.ColumnCount <= 0 {
		return EmptyTable
	}
	cols := t.ColumnCount

	grid := make([][]string, t.RowCount)
	for i := range grid {
		grid[i] = make([]string, cols)
	}
	for _, c := range t.Cells {
		if c.RowIndex < 0 || c.RowIndex >= t.RowCount || c.ColumnIndex < 0 || c.ColumnIndex >= cols {
			r.log().Warn("markdown.table.cell_out_of_range",
				"table_id", t.ID,
				"row", c.RowIndex,
				"col", c.ColumnIndex,
				"row_count", t.RowCount,
				"column_count", cols,
				"error", common.NewDataShapeError("cell outside declared grid"),
			)
			continue
		}
		grid[c.RowIndex][c.ColumnIndex] = r.cell(c.Content)
	}

	sep := make([]string, cols)
	for i := range sep {
		sep[i] = "---"
	}

	lines := make([]string, 0, t.RowCount+1)
	lines = append(lines, row(grid[0]), row(sep))
	for _, cells := range grid[1:] {
		lines = append(lines, row(cells))
	}
	return strings.Join(lines, "\n")
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func (r *Renderer) cell(s string) string {
	if !r.EscapeCells {
		return s
	}
	return cellEscaper.Replace(s)
}

func (r *Renderer) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}
