package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/medintake/form-extractor/constants"
	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/llm"
	"github.com/medintake/form-extractor/internal/pipeline"
	"github.com/medintake/form-extractor/internal/schema"
	"github.com/medintake/form-extractor/internal/validate"
)

// One-shot extraction for a single file; prints the outcome as JSON on
// stdout. Useful for prompt/schema debugging without the HTTP layer.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	if len(os.Args) != 2 {
		logger.Error("usage", "cmd", "formextract <file>")
		os.Exit(2)
	}
	path := os.Args[1]

	media := constants.MapExtToMediaType(filepath.Ext(path))
	if media == "" {
		logger.Error("unsupported file type", "path", path)
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("read file", "path", path, "error", err)
		os.Exit(1)
	}

	cfg := common.LoadConfig()
	if cfg.LLM.APIKey == "" {
		logger.Error("GROQ_API_KEY env var is required")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	def := schema.Default()
	selector := acquire.NewSelector(
		acquire.NewPDFAcquirer(cfg.Acquire.PDFPagePolicy),
		acquire.NewImageAcquirer(cfg.Acquire, nil),
		logger,
	)
	orch := pipeline.NewOrchestrator(
		selector,
		llm.NewGroqExtractor(cfg.LLM, logger),
		validate.New(def),
		def,
		logger,
	)

	out := orch.Run(ctx, acquire.Document{Data: data, Media: media, Name: filepath.Base(path)})

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
	if !out.OK {
		os.Exit(1)
	}
}
