package render

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/schema"
)

// fakeRunner plays the renderer command: it reads the record JSON it was
// handed and writes the requested output file.
type fakeRunner struct {
	name    string
	args    []string
	seen    map[string]any
	failErr error
	skipOut bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name = name
	f.args = args
	if f.failErr != nil {
		return nil, []byte("boom"), f.failErr
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(b, &f.seen); err != nil {
		return nil, nil, err
	}
	if !f.skipOut {
		if err := os.WriteFile(args[1], []byte("png-bytes"), 0o644); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func TestCommandRenderer(t *testing.T) {
	outDir := t.TempDir()
	runner := &fakeRunner{}
	r := NewCommandRenderer(common.RenderConfig{Command: "render-form", Timeout: time.Second}, outDir, runner)

	rec := schema.SanitizedRecord{"patient_name": "John Doe", "allergies": []string{}}
	path, err := r.Render(context.Background(), rec, "run-1")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(outDir, "run-1_screenshot.png"), path)
	assert.Equal(t, "render-form", runner.name)
	assert.Equal(t, "John Doe", runner.seen["patient_name"])

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(b))
}

func TestCommandRendererCommandFailure(t *testing.T) {
	runner := &fakeRunner{failErr: errors.New("exit status 2")}
	r := NewCommandRenderer(common.RenderConfig{Command: "render-form"}, t.TempDir(), runner)

	_, err := r.Render(context.Background(), schema.SanitizedRecord{}, "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer command")
	assert.Contains(t, err.Error(), "boom")
}

func TestCommandRendererMissingOutput(t *testing.T) {
	runner := &fakeRunner{skipOut: true}
	r := NewCommandRenderer(common.RenderConfig{Command: "render-form"}, t.TempDir(), runner)

	_, err := r.Render(context.Background(), schema.SanitizedRecord{}, "run-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "renderer produced no output")
}

func TestNop(t *testing.T) {
	path, err := Nop{}.Render(context.Background(), schema.SanitizedRecord{}, "run-1")
	require.NoError(t, err)
	assert.Empty(t, path)
}
