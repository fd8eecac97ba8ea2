package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/joseph-ayodele/invoice-parser/internal/common"
)

// Runner executes the external pdftoppm and tesseract binaries. Tests swap in a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	log := r.logger.With("cmd", name, "args", strings.Join(args, " "), "duration_ms", time.Since(start).Milliseconds())
	if err != nil {
		log.Error("ocr.exec.failed", "error", err, "stderr_bytes", stderr.Len())
		return stdout.Bytes(), stderr.Bytes(), err
	}
	log.Debug("ocr.exec.ok", "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// commandError describes a failed tool run. A missing binary is a configuration
// problem rather than a bad document.
func commandError(tool string, err error, stderr []byte) error {
	if errors.Is(err, exec.ErrNotFound) {
		return common.NewConfigurationError(fmt.Sprintf("%s not found on PATH (needed by ANALYZER=local)", tool), err)
	}
	msg := strings.TrimSpace(string(stderr))
	if len(msg) > 512 {
		msg = msg[:512] + "...(truncated)"
	}
	if msg == "" {
		return fmt.Errorf("%s: %w", tool, err)
	}
	return fmt.Errorf("%s: %w: %s", tool, err, msg)
}
