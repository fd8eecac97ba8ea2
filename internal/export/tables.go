package export

import (
	"regexp"
	"strings"
)

// Table is a markdown pipe table lifted out of an LLM reply.
type Table struct {
	Title  string // closest heading above the table, without the leading #s
	Header []string
	Rows   [][]string
}

var separatorCell = regexp.MustCompile(`^:?-{3,}:?$`)

// ParseTables returns every pipe table in reply, in order. A block of pipe lines
// counts as a table only when its second line is a header separator.
func ParseTables(reply string) []Table {
	lines := strings.Split(strings.ReplaceAll(reply, "\r\n", "\n"), "\n")

	var (
		out   []Table
		title string
	)
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "#") {
			title = strings.TrimSpace(strings.TrimLeft(line, "#"))
			continue
		}
		if !isPipeLine(line) {
			continue
		}

		j := i
		for j < len(lines) && isPipeLine(strings.TrimSpace(lines[j])) {
			j++
		}
		block := lines[i:j]
		i = j - 1

		if len(block) < 2 || !isSeparator(splitRow(block[1])) {
			continue
		}
		t := Table{Title: title, Header: splitRow(block[0])}
		for _, l := range block[2:] {
			t.Rows = append(t.Rows, splitRow(l))
		}
		out = append(out, t)
	}
	return out
}

func isPipeLine(line string) bool {
	return strings.HasPrefix(line, "|")
}

func isSeparator(cells []string) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !separatorCell.MatchString(strings.ReplaceAll(c, " ", "")) {
			return false
		}
	}
	return true
}

// splitRow splits "| a | b\|c |" into ["a", "b|c"].
func splitRow(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	if strings.HasSuffix(line, "|") && !strings.HasSuffix(line, `\|`) {
		line = line[:len(line)-1]
	}

	var (
		cells []string
		cur   strings.Builder
	)
	for i := 0; i < len(line); i++ {
		switch {
		case line[i] == '\\' && i+1 < len(line) && line[i+1] == '|':
			cur.WriteByte('|')
			i++
		case line[i] == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(line[i])
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(c, "<br>", "\n")
	}
	return cells
}
