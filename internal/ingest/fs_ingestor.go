package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/joseph-ayodele/invoice-parser/constants"
	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

// Inspect validates that path is a readable PDF and fingerprints its content.
func Inspect(path string) (Candidate, error) {
	var out Candidate

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		return out, fmt.Errorf("%w: unsupported or missing extension %q", common.ErrInvalidInput, ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	info, err := f.Stat()
	if err != nil {
		return out, err
	}
	if info.IsDir() {
		return out, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, abs)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, fmt.Errorf("hash %s: %w", abs, err)
	}

	return Candidate{
		Path:      abs,
		Name:      filepath.Base(abs),
		SizeBytes: info.Size(),
		HashHex:   hex.EncodeToString(h.Sum(nil)),
		ModTime:   info.ModTime().UTC(),
	}, nil
}

// Dedup remembers content hashes so identical uploads are processed once.
// The zero value is ready to use.
type Dedup struct {
	mu   sync.Mutex
	seen map[string]string
}

// Mark records c and reports whether its hash was already seen. The first path
// that carried the hash is returned alongside.
func (d *Dedup) Mark(c Candidate) (first string, seen bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.seen == nil {
		d.seen = map[string]string{}
	}
	if p, ok := d.seen[c.HashHex]; ok {
		return p, true
	}
	d.seen[c.HashHex] = c.Path
	return c.Path, false
}

// Forget drops a hash so the same bytes can be processed again.
func (d *Dedup) Forget(hash string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, hash)
}
