package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
)

// ScanDirectory walks root and returns every matching PDF in lexical path order.
// Unreadable entries are reported in the results with Err set; they never stop the walk.
// When dedup is non-nil, files whose bytes were already seen come back with Deduplicated set.
func ScanDirectory(ctx context.Context, root string, skipHidden bool, dedup *Dedup, logger *slog.Logger) ([]Candidate, DirStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Candidate
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			logger.Warn("ingest.scan.walk_error", "path", path, "error", walkErr)
			results = append(results, Candidate{Path: path, Name: filepath.Base(path), Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		c, err := Inspect(path)
		if err != nil {
			logger.Warn("ingest.scan.inspect_error", "path", path, "error", err)
			results = append(results, Candidate{Path: path, Name: filepath.Base(path), Err: err.Error()})
			stats.Failed++
			return nil
		}
		if dedup != nil {
			if first, seen := dedup.Mark(c); seen {
				logger.Info("ingest.scan.duplicate", "path", c.Path, "first", first)
				c.Deduplicated = true
				stats.Deduplicated++
			}
		}
		results = append(results, c)
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	logger.Debug("ingest.scan.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated,
	)
	return results, stats, nil
}
