package ocr

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

// stubRunner fakes pdftoppm (writes one png per entry in pages) and tesseract (returns pages[i]).
type stubRunner struct {
	pages []string
	fail  map[int]bool
	calls []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.calls = append(s.calls, name+" "+strings.Join(args, " "))
	switch name {
	case "pdftoppm":
		prefix := args[len(args)-1]
		for i := range s.pages {
			if err := os.WriteFile(prefix+"-"+string(rune('1'+i))+".png", []byte("png"), 0o600); err != nil {
				return nil, nil, err
			}
		}
		return nil, nil, nil
	case "tesseract":
		img := filepath.Base(args[0])
		idx := int(img[len("page-")] - '1')
		if s.fail[idx] {
			return nil, []byte("Error in pixReadStream"), errors.New("exit status 1")
		}
		return []byte(s.pages[idx]), nil, nil
	}
	return nil, nil, errors.New("unexpected command " + name)
}

func newTestExtractor(r Runner, layer textLayerFunc) *Extractor {
	e := NewExtractor(Config{DPI: 200}, nil)
	e.runner = r
	e.textLayer = layer
	return e
}

func TestAnalyzeUsesTextLayer(t *testing.T) {
	r := &stubRunner{}
	e := newTestExtractor(r, func(string, int) ([][]string, error) {
		return [][]string{{"Invoice 42", "ACME"}, {}}, nil
	})

	res, err := e.Analyze(t.Context(), "in.pdf")
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	assert.Equal(t, 1, res.Pages[0].PageNumber)
	assert.Equal(t, "ACME", res.Pages[0].Lines[1].Content)
	assert.Equal(t, 2, res.Pages[1].PageNumber)
	assert.Empty(t, res.Pages[1].Lines)
	assert.Empty(t, res.Paragraphs)
	assert.Empty(t, r.calls)
}

func TestAnalyzeFallsBackToOCR(t *testing.T) {
	r := &stubRunner{pages: []string{"Timesheet\r\n\nJohn   Smith\t 8h\n-----\n", "\f"}}
	e := newTestExtractor(r, func(string, int) ([][]string, error) {
		return nil, errors.New("no text layer")
	})

	res, err := e.Analyze(t.Context(), "scan.PDF")
	require.NoError(t, err)
	require.Len(t, res.Pages, 2)
	require.Len(t, res.Pages[0].Lines, 2)
	assert.Equal(t, "Timesheet", res.Pages[0].Lines[0].Content)
	assert.Equal(t, "John Smith 8h", res.Pages[0].Lines[1].Content)
	assert.Empty(t, res.Pages[1].Lines)

	require.NotEmpty(t, r.calls)
	assert.True(t, strings.HasPrefix(r.calls[0], "pdftoppm -r 200 -png scan.PDF "))
}

func TestAnalyzeOCRPageFailureKeepsNumbering(t *testing.T) {
	r := &stubRunner{pages: []string{"one", "two", "three"}, fail: map[int]bool{1: true}}
	e := newTestExtractor(r, func(string, int) ([][]string, error) { return [][]string{{}, {}, {}}, nil })

	res, err := e.Analyze(t.Context(), "scan.pdf")
	require.NoError(t, err)
	require.Len(t, res.Pages, 3)
	assert.Empty(t, res.Pages[1].Lines)
	assert.Equal(t, "three", res.Pages[2].Lines[0].Content)
}

func TestAnalyzeOCRAllPagesFail(t *testing.T) {
	r := &stubRunner{pages: []string{"x"}, fail: map[int]bool{0: true}}
	e := newTestExtractor(r, func(string, int) ([][]string, error) { return nil, nil })

	_, err := e.Analyze(t.Context(), "scan.pdf")
	assert.ErrorContains(t, err, "tesseract failed on all 1 pages")
}

func TestAnalyzeRejectsNonPDF(t *testing.T) {
	e := newTestExtractor(&stubRunner{}, nil)
	_, err := e.Analyze(t.Context(), "photo.jpg")
	assert.ErrorContains(t, err, "unsupported extension")
}

func TestSplitLines(t *testing.T) {
	assert.Equal(t, []string{"a b", "c"}, splitLines("  a    b \n\n ____ \n c\f"))
	assert.Empty(t, splitLines(""))
}

func TestCommandError(t *testing.T) {
	missing := commandError("tesseract", &exec.Error{Name: "tesseract", Err: exec.ErrNotFound}, nil)
	assert.ErrorIs(t, missing, common.ErrConfiguration)

	failed := commandError("pdftoppm", errors.New("exit status 1"), []byte(" Syntax Error: bad xref \n"))
	assert.EqualError(t, failed, "pdftoppm: exit status 1: Syntax Error: bad xref")
	assert.NotErrorIs(t, failed, common.ErrConfiguration)

	assert.EqualError(t, commandError("tesseract", errors.New("killed"), nil), "tesseract: killed")
}
