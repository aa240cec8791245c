package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tianputao/data-pipeline-agent/internal/adapter/repo"
	"github.com/tianputao/data-pipeline-agent/internal/agent"
	"github.com/tianputao/data-pipeline-agent/internal/http/handlers"
	httpapi "github.com/tianputao/data-pipeline-agent/internal/http/httpapi"
	"github.com/tianputao/data-pipeline-agent/internal/infra"
	"github.com/tianputao/data-pipeline-agent/internal/llm"
	"github.com/tianputao/data-pipeline-agent/internal/nlu"
	"github.com/tianputao/data-pipeline-agent/internal/render"
	"github.com/tianputao/data-pipeline-agent/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()

	// Plan history is optional; the synthesis pipeline runs without it.
	var plans *repo.PlanRepositoryPG
	if cfg.DatabaseURL != "" {
		dbpool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer dbpool.Close()
		plans = repo.NewPlanRepository(dbpool)
	} else {
		logger.Info().Msg("no DATABASE_URL set; plan history disabled")
	}

	extractor, err := llm.FromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build llm client")
	}
	synthOpts := nlu.SynthesizerOptions{
		BasePath: cfg.DefaultBasePath,
		Catalog:  cfg.DefaultUnityCatalog,
	}
	if extractor != nil {
		synthOpts.Model = extractor
	} else {
		logger.Info().Str("provider", cfg.LLMProvider).Msg("llm extraction disabled; running text-only synthesis")
	}
	synth := nlu.NewSynthesizer(logger, synthOpts)

	renderer, err := render.NewRenderer()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load script templates")
	}
	store, err := storage.NewScriptStore(cfg.AgentStoragePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize script store")
	}

	service := agent.NewService(cfg, logger, synth, renderer, store)
	app := handlers.NewApp(logger, service, plans)
	router := httpapi.NewRouter(app, logger)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on %s", server.Addr())
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
