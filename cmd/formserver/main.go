package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medintake/form-extractor/internal/acquire"
	"github.com/medintake/form-extractor/internal/async"
	"github.com/medintake/form-extractor/internal/common"
	"github.com/medintake/form-extractor/internal/export"
	"github.com/medintake/form-extractor/internal/llm"
	"github.com/medintake/form-extractor/internal/pipeline"
	"github.com/medintake/form-extractor/internal/render"
	"github.com/medintake/form-extractor/internal/schema"
	"github.com/medintake/form-extractor/internal/server"
	"github.com/medintake/form-extractor/internal/store"
	"github.com/medintake/form-extractor/internal/validate"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if err := cfg.InitDirectories(); err != nil {
		logger.Error("create artifact directories", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	def := schema.Default()
	selector := acquire.NewSelector(
		acquire.NewPDFAcquirer(cfg.Acquire.PDFPagePolicy),
		acquire.NewImageAcquirer(cfg.Acquire, nil),
		logger,
	)
	extractor := llm.NewGroqExtractor(cfg.LLM, logger)
	orch := pipeline.NewOrchestrator(selector, extractor, validate.New(def), def, logger)

	queue := async.NewRunQueue(orch, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithRunTimeout(cfg.Queue.RunTimeout),
	)
	defer queue.Close()

	st, err := store.Open(cfg.Store.DBPath)
	if err != nil {
		logger.Error("open history store", "path", cfg.Store.DBPath, "error", err)
		os.Exit(1)
	}
	defer st.Close()

	var renderer render.Renderer = render.Nop{}
	if cfg.Render.Command != "" {
		renderer = render.NewCommandRenderer(cfg.Render, cfg.Paths.ScreenshotDir, nil)
	}

	srv := server.New(cfg, queue, renderer, st, export.NewService(st, logger), logger)
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http.serving", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http serve", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	logger.Info("stopped")
}
