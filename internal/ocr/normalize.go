package ocr

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reBoxNoise   = regexp.MustCompile(`^[_\-=|]{3,}$`)
)

// normalizeLine collapses whitespace; rule-only lines ("-----") become empty.
func normalizeLine(s string) string {
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	if reBoxNoise.MatchString(s) {
		return ""
	}
	return s
}

// splitLines turns raw OCR output into non-empty normalized lines.
func splitLines(txt string) []string {
	txt = reCRLF.ReplaceAllString(txt, "\n")
	txt = strings.ReplaceAll(txt, "\f", "\n")
	out := []string{}
	for _, l := range strings.Split(txt, "\n") {
		if s := normalizeLine(l); s != "" {
			out = append(out, s)
		}
	}
	return out
}
