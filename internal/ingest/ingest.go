// Package ingest finds PDFs to process: a one-shot directory scan for the batch
// CLI and an fsnotify watcher for the inbox daemon.
package ingest

import "time"

// Candidate is a PDF found on disk, identified by its content hash.
type Candidate struct {
	Path      string
	Name      string
	SizeBytes int64
	HashHex   string
	ModTime   time.Time
	// Deduplicated is set when the same bytes were already seen by a Dedup.
	Deduplicated bool
	Err          string
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}
