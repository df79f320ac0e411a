// Command server is the HTTP transport entrypoint: it wires every
// collaborator in dependency order -- config, then store, then bus, then
// pool, then workflow factory, then transport -- and tears them down in
// reverse, with the worker pools given a bounded deadline to drain
// in-flight jobs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/digitallysavvy/deepreader/internal/ai"
	"github.com/digitallysavvy/deepreader/internal/artifact"
	"github.com/digitallysavvy/deepreader/internal/collaborators"
	"github.com/digitallysavvy/deepreader/internal/config"
	"github.com/digitallysavvy/deepreader/internal/derived"
	"github.com/digitallysavvy/deepreader/internal/events"
	"github.com/digitallysavvy/deepreader/internal/httpapi"
	"github.com/digitallysavvy/deepreader/internal/llm/anthropic"
	"github.com/digitallysavvy/deepreader/internal/llm/elevenlabs"
	"github.com/digitallysavvy/deepreader/internal/logging"
	"github.com/digitallysavvy/deepreader/internal/pool"
	"github.com/digitallysavvy/deepreader/internal/task"
	"github.com/digitallysavvy/deepreader/internal/telemetry"
	"github.com/digitallysavvy/deepreader/internal/workflow"
)

// shutdownGrace bounds how long the process waits for in-flight HTTP
// requests and queued worker-pool tasks to drain before exiting.
const shutdownGrace = 30 * time.Second

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	telemetryShutdown, err := telemetry.Init(context.Background(), "deepreader", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("initializing tracing", zap.Error(err))
	}

	store, err := artifact.Open(cfg.ArtifactRoot, cfg.TrashRoot)
	if err != nil {
		log.Fatal("opening artifact store", zap.Error(err))
	}
	defer store.Close()

	bus := events.NewBus()
	registry := task.NewRegistry(bus)
	queue := pool.New(cfg.MaxConcurrentAnalysisTasks, cfg.AnalysisQueueMaxSize)

	lmProvider := anthropic.New(anthropic.Config{APIKey: cfg.LMVendorAPIKey})
	model, err := lmProvider.LanguageModel(cfg.PreferredModel)
	if err != nil {
		log.Fatal("constructing language model", zap.Error(err))
	}

	speechProvider := elevenlabs.New(elevenlabs.Config{APIKey: cfg.ElevenLabsAPIKey})
	speech, err := speechProvider.SpeechModel("")
	if err != nil {
		log.Fatal("constructing speech model", zap.Error(err))
	}

	fetcher := collaborators.NewHTTPFetcher(collaborators.Config{
		SubtitleServiceURL:   cfg.SubtitleServiceURL,
		FileUploadServiceURL: cfg.FileUploadServiceURL,
		FileUploadAPIKey:     cfg.LMVendorAPIKey,
	})

	wf := workflow.New(workflow.Config{
		Model:              model,
		Fetcher:            fetcher,
		Store:              store,
		Registry:           registry,
		ChapterConcurrency: cfg.ChapterSubconcurrency,
		Retry: ai.RetryConfig{
			MaxRetries:   cfg.ChapterRetryMax,
			InitialDelay: time.Duration(cfg.ChapterBackoffInitialSec) * time.Second,
			MaxDelay:     time.Duration(cfg.ChapterBackoffMaxSec) * time.Second,
		},
	})

	derivedPipeline, err := derived.New(derived.Config{
		Store:              store,
		Bus:                bus,
		VisualModel:        model,
		Speech:             speech,
		VisualWorkers:      cfg.DerivedVisualWorkers,
		TTSWorkers:         cfg.DerivedTTSWorkers,
		QueueSize:          cfg.DerivedQueueSize,
		ProcessedSetPath:   cfg.ProcessedSetPath,
		TTSCacheRoot:       cfg.TTSCacheRoot,
		TTSDefaultVoice:    cfg.TTSDefaultVoice,
		TTSDefaultLanguage: cfg.TTSDefaultLanguage,
		TTSChunkMaxChars:   cfg.TTSChunkMaxChars,
		TTSTextMaxChars:    cfg.TTSTextMaxChars,
	})
	if err != nil {
		log.Fatal("starting derived-artifact pipeline", zap.Error(err))
	}
	defer derivedPipeline.Close()

	srv := &httpapi.Server{
		Log:               log,
		Store:             store,
		Bus:               bus,
		Registry:          registry,
		Queue:             queue,
		Workflow:          wf,
		Derived:           derivedPipeline,
		Model:             model,
		MaxTextFileSize:   cfg.MaxTextFileSize,
		MaxBinaryFileSize: cfg.MaxBinaryFileSize,
		BearerTokens:      cfg.AuthBearerTokens,
	}
	srv.SetTaskTimeout(cfg.AnalysisTaskTimeout)
	srv.SetTTSDefaults(cfg.TTSDefaultVoice, cfg.TTSDefaultLanguage)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv.NewRouter(),
	}

	go func() {
		log.Info("listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	_ = httpServer.Shutdown(ctx)

	drained := make(chan struct{})
	go func() {
		derivedPipeline.Close()
		queue.Shutdown(true)
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		log.Warn("worker pools did not drain before the shutdown deadline")
	}
	_ = telemetryShutdown(ctx)
}
