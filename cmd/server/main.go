package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/lorebase/internal/api"
	"github.com/dgallion1/lorebase/internal/config"
	"github.com/dgallion1/lorebase/internal/dedupe"
	"github.com/dgallion1/lorebase/internal/extractor"
	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/dgallion1/lorebase/internal/kvstore"
	"github.com/dgallion1/lorebase/internal/llm"
	"github.com/dgallion1/lorebase/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Knowledge store: the KV collaborator when configured, in-memory otherwise.
	var store knowledge.Store
	var kv *kvstore.Client
	if cfg.KVStoreURL != "" {
		kv = kvstore.NewClient(cfg.KVStoreURL, cfg.KVStoreAPIKey)
		store = kv
	} else {
		log.Warn("KVSTORE_URL not set, using in-memory store")
		store = knowledge.NewMemStore()
	}

	llmClient := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)
	if !llmClient.Configured() {
		log.Warn("OPENAI_API_KEY not set, extraction and merge are disabled")
	}

	ext := extractor.New(llmClient, llm.FixedDelay(cfg.ExtractDelay), log)
	merger := dedupe.NewMerger(llmClient, store, llm.FixedDelay(cfg.MergeDelay), log)

	orch := pipeline.NewOrchestrator(cfg, store, ext, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, store, merger, llmClient, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llmClient.Close()
		if kv != nil {
			kv.Close()
		}
	}()

	log.Info("starting lorebase", "port", cfg.Port, "model", cfg.OpenAIModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
