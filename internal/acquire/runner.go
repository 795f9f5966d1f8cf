package acquire

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// Runner lets us stub the OCR command in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var out, errb bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &errb

	start := time.Now()
	err := cmd.Run()

	if err != nil {
		slog.Error("acquire.exec.failed",
			"cmd", name,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"stderr", truncate(errb.String(), 8<<10),
			"error", err,
		)
		return out.Bytes(), errb.Bytes(), err
	}
	slog.Debug("acquire.exec.ok",
		"cmd", name,
		"elapsed_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", out.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
