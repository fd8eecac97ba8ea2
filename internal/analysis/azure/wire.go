package azure

import "github.com/joseph-ayodele/invoice-parser/internal/analysis"

// operation is the body returned when polling an analyze operation.
type operation struct {
	Status        string         `json:"status"`
	AnalyzeResult *analyzeResult `json:"analyzeResult"`
	Error         *serviceError  `json:"error"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorEnvelope is what the service returns on non-2xx responses.
type errorEnvelope struct {
	Error *serviceError `json:"error"`
}

type analyzeResult struct {
	APIVersion string      `json:"apiVersion"`
	ModelID    string      `json:"modelId"`
	Pages      []page      `json:"pages"`
	Paragraphs []paragraph `json:"paragraphs"`
	Tables     []table     `json:"tables"`
}

type page struct {
	PageNumber int    `json:"pageNumber"`
	Lines      []line `json:"lines"`
}

type line struct {
	Content string `json:"content"`
}

type span struct {
	Offset int `json:"offset"`
	Length int `json:"length"`
}

type boundingRegion struct {
	PageNumber int       `json:"pageNumber"`
	Polygon    []float64 `json:"polygon"`
}

type paragraph struct {
	Content         string           `json:"content"`
	Role            *string          `json:"role"`
	Spans           []span           `json:"spans"`
	BoundingRegions []boundingRegion `json:"boundingRegions"`
}

type table struct {
	RowCount        int              `json:"rowCount"`
	ColumnCount     int              `json:"columnCount"`
	BoundingRegions []boundingRegion `json:"boundingRegions"`
	Cells           []cell           `json:"cells"`
}

type cell struct {
	Kind        *string `json:"kind"`
	RowIndex    int     `json:"rowIndex"`
	ColumnIndex int     `json:"columnIndex"`
	RowSpan     *int    `json:"rowSpan"`
	ColumnSpan  *int    `json:"columnSpan"`
	Content     string  `json:"content"`
}

func (r *analyzeResult) toResult() *analysis.Result {
	out := &analysis.Result{
		Pages:      make([]analysis.Page, 0, len(r.Pages)),
		Paragraphs: make([]analysis.Paragraph, 0, len(r.Paragraphs)),
		Tables:     make([]analysis.Table, 0, len(r.Tables)),
	}
	for _, p := range r.Pages {
		lines := make([]analysis.Line, 0, len(p.Lines))
		for _, l := range p.Lines {
			lines = append(lines, analysis.Line{Content: l.Content})
		}
		out.Pages = append(out.Pages, analysis.Page{PageNumber: p.PageNumber, Lines: lines})
	}
	for _, p := range r.Paragraphs {
		spans := make([]analysis.Span, 0, len(p.Spans))
		for _, s := range p.Spans {
			spans = append(spans, analysis.Span{Offset: s.Offset, Length: s.Length})
		}
		out.Paragraphs = append(out.Paragraphs, analysis.Paragraph{
			Content:         p.Content,
			Role:            p.Role,
			Spans:           spans,
			BoundingRegions: regions(p.BoundingRegions),
		})
	}
	for _, t := range r.Tables {
		cells := make([]analysis.Cell, 0, len(t.Cells))
		for _, c := range t.Cells {
			cells = append(cells, analysis.Cell{
				RowIndex:    c.RowIndex,
				ColumnIndex: c.ColumnIndex,
				Content:     c.Content,
				Kind:        c.Kind,
				ColumnSpan:  c.ColumnSpan,
			})
		}
		out.Tables = append(out.Tables, analysis.Table{
			RowCount:        t.RowCount,
			ColumnCount:     t.ColumnCount,
			BoundingRegions: regions(t.BoundingRegions),
			Cells:           cells,
		})
	}
	return out
}

func regions(in []boundingRegion) []analysis.BoundingRegion {
	out := make([]analysis.BoundingRegion, 0, len(in))
	for _, b := range in {
		out = append(out, analysis.BoundingRegion{PageNumber: b.PageNumber})
	}
	return out
}
