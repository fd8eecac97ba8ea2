package ocr

import (
	"fmt"

	"github.com/tsawler/tabula"
)

// tabulaTextLayer reads each page's detected lines from the PDF text layer.
func tabulaTextLayer(path string, maxPages int) ([][]string, error) {
	ext := tabula.Open(path)
	count, err := ext.PageCount()
	_ = ext.Close()
	if err != nil {
		return nil, fmt.Errorf("page count: %w", err)
	}
	if maxPages > 0 && count > maxPages {
		count = maxPages
	}

	pages := make([][]string, 0, count)
	for p := 1; p <= count; p++ {
		lines, err := tabula.Open(path).Pages(p).Lines()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		out := make([]string, 0, len(lines))
		for _, l := range lines {
			if s := normalizeLine(l.Text); s != "" {
				out = append(out, s)
			}
		}
		pages = append(pages, out)
	}
	return pages, nil
}
