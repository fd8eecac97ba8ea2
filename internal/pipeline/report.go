package pipeline

import (
	"fmt"
	"io"
)

// Divider separates documents in a batch report.
const Divider = "---"

// WriteReport writes each result under a "Processing: <name>" header followed by a
// divider, in the order the documents were processed.
func WriteReport(w io.Writer, results []Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "## Processing: %s\n\n%s\n\n%s\n\n", r.Name, r.Output(), Divider); err != nil {
			return err
		}
	}
	return nil
}

// Summary counts successes and failures.
func Summary(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.Err != nil {
			failed++
		} else {
			ok++
		}
	}
	return ok, failed
}
