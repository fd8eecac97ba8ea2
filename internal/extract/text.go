package extract

import (
	"sort"

	"github.com/joseph-ayodele/invoice-parser/internal/analysis"
)

// ExtractText buckets the result's text by page.
//
// Paragraphs are preferred: they are ordered by their first span offset and
// copied onto every page listed in their bounding regions. Page lines are used
// only when the paragraphs produced nothing, and then every page gets an
// entry even if it has no lines. The two sources are never mixed.
func ExtractText(res *analysis.Result) ExtractedText {
	out := ExtractedText{}
	if res == nil {
		return out
	}

	if len(res.Paragraphs) > 0 {
		paras := make([]analysis.Paragraph, len(res.Paragraphs))
		copy(paras, res.Paragraphs)
		sort.SliceStable(paras, func(i, j int) bool {
			return paras[i].FirstOffset() < paras[j].FirstOffset()
		})
		for _, p := range paras {
			for _, br := range p.BoundingRegions {
				out[br.PageNumber] = append(out[br.PageNumber], TextItem{
					Kind:    KindParagraph,
					Content: p.Content,
					Role:    p.Role,
				})
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	for _, page := range res.Pages {
		items := []TextItem{}
		for _, l := range page.Lines {
			items = append(items, TextItem{Kind: KindLine, Content: l.Content})
		}
		out[page.PageNumber] = items
	}
	return out
}
