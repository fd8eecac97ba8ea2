package extract

import "github.com/joseph-ayodele/invoice-parser/internal/analysis"

// ExtractTables flattens tables in source order. Geometry is not checked here;
// the renderer decides what to do with cells outside the declared grid.
func ExtractTables(res *analysis.Result) []ExtractedTable {
	if res == nil || len(res.Tables) == 0 {
		return nil
	}
	out := make([]ExtractedTable, 0, len(res.Tables))
	for i, t := range res.Tables {
		et := ExtractedTable{
			ID:          i,
			RowCount:    t.RowCount,
			ColumnCount: t.ColumnCount,
			PageNumbers: pageNumbers(t.BoundingRegions),
			Cells:       make([]TableCell, 0, len(t.Cells)),
		}
		for _, c := range t.Cells {
			et.Cells = append(et.Cells, TableCell{
				RowIndex:    c.RowIndex,
				ColumnIndex: c.ColumnIndex,
				Content:     c.Content,
				IsHeader:    c.Kind != nil && *c.Kind == analysis.CellKindColumnHeader,
				ColSpan:     colSpan(c.ColumnSpan),
			})
		}
		out = append(out, et)
	}
	return out
}

// pageNumbers dedupes region pages, keeping first-seen order.
func pageNumbers(regions []analysis.BoundingRegion) []int {
	seen := make(map[int]struct{}, len(regions))
	out := make([]int, 0, len(regions))
	for _, r := range regions {
		if _, ok := seen[r.PageNumber]; ok {
			continue
		}
		seen[r.PageNumber] = struct{}{}
		out = append(out, r.PageNumber)
	}
	return out
}

func colSpan(v *int) int {
	if v == nil || *v < 1 {
		return 1
	}
	return *v
}
