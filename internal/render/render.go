// Package render is the narrow contract to the external screenshot renderer:
// a sanitized record goes in, an artifact path comes out. The pipeline treats
// it as opaque and never retries on its behalf.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/schema"
)

type Renderer interface {
	Render(ctx context.Context, rec schema.SanitizedRecord, id string) (string, error)
}

// Runner lets us stub the renderer command in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	err := cmd.Run()
	return out.Bytes(), errb.Bytes(), err
}

// CommandRenderer shells out to the configured browser-automation tool:
// <command> <record.json> <output.png>.
type CommandRenderer struct {
	cfg    common.RenderConfig
	outDir string
	runner Runner
}

func NewCommandRenderer(cfg common.RenderConfig, outDir string, runner Runner) *CommandRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if runner == nil {
		runner = execRunner{}
	}
	return &CommandRenderer{cfg: cfg, outDir: outDir, runner: runner}
}

func (r *CommandRenderer) Render(ctx context.Context, rec schema.SanitizedRecord, id string) (string, error) {
	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	tmp, err := os.CreateTemp("", "intake-record-*.json")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	outPath := filepath.Join(r.outDir, id+"_screenshot.png")
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	if _, errb, err := r.runner.Run(runCtx, r.cfg.Command, tmp.Name(), outPath); err != nil {
		return "", fmt.Errorf("renderer command: %w: %s", err, string(errb))
	}
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("renderer produced no output: %w", err)
	}
	return outPath, nil
}

// Nop is used when no renderer command is configured (tests, CLI runs).
type Nop struct{}

func (Nop) Render(context.Context, schema.SanitizedRecord, string) (string, error) {
	return "", nil
}
