// cmd/mock-server/serve.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mock-response-service/internal/api"
	"mock-response-service/internal/codestore"
	"mock-response-service/internal/common/camunda"
	"mock-response-service/internal/common/config"
	"mock-response-service/internal/common/logger"
	"mock-response-service/internal/common/metrics"
	"mock-response-service/internal/common/observability"
	"mock-response-service/internal/keys"
	"mock-response-service/internal/storage"
	"mock-response-service/internal/synthetic"
	"mock-response-service/internal/template"
	"mock-response-service/internal/workers/mock/authorize"
	generateresponse "mock-response-service/internal/workers/mock/generate-response"
	"mock-response-service/pkg/registry"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and, when enabled, the Zeebe job workers",
	RunE:  runServe,
}

// retryWithBackoff attempts to execute a function with exponential backoff.
// A nil retryable retries every error.
func retryWithBackoff(operation func() error, retryable func(error) bool, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return fmt.Errorf("%s failed: %w", operationName, err)
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting mock-response-service...",
		zap.String("environment", cfg.App.Environment),
		zap.String("address", cfg.Server.Address),
	)

	obs := observability.New(cfg.App.Name, cfg.Observability.JaegerEndpoint)
	defer obs.Shutdown()

	catalog, err := registry.NewRegistry(cfg.Mocks.Dir)
	if err != nil {
		return fmt.Errorf("load service catalog: %w", err)
	}
	zapLog.Info("Service catalog loaded",
		zap.String("dir", cfg.Mocks.Dir),
		zap.Strings("services", catalog.Catalog().ServiceIDs()),
	)

	keyGen, err := keys.NewGenerator(keys.SchemaFromConfig(cfg.Keys))
	if err != nil {
		return fmt.Errorf("key schema: %w", err)
	}

	store := storage.NewMemoryStore()
	store.CreateCollection(storage.ResponsesCollection)

	renderer := template.NewRenderer(synthetic.NewDefaultRegistry(cfg.Synthetic.Seed), log)

	// --- Authorization code store with retry ---
	var codes codestore.Store
	err = retryWithBackoff(func() error {
		var err error
		codes, err = codestore.New(cfg)
		if err != nil {
			return err
		}
		if p, ok := codes.(interface{ Ping(context.Context) error }); ok {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				codes.Close()
				return err
			}
		}
		return nil
	}, nil, 10, time.Second, zapLog, "Code store initialization")
	if err != nil {
		return err
	}
	defer codes.Close()
	zapLog.Info("Code store ready", zap.String("backend", cfg.Codes.Backend))

	generator, err := generateresponse.NewHandler(generateresponse.ConfigFromApp(cfg), generateresponse.Dependencies{
		Store:         store,
		Keys:          keyGen,
		Renderer:      renderer,
		Catalog:       catalog,
		Observability: obs,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create %s handler: %w", generateresponse.TaskType, err)
	}

	authzCfg := authorize.ConfigFromApp(cfg)
	authz, err := authorize.NewService(authzCfg, store, codes, log, authorize.WithObservability(obs))
	if err != nil {
		return fmt.Errorf("failed to create authorize service: %w", err)
	}

	server := api.NewServer(cfg, api.Dependencies{
		Store:     store,
		Catalog:   catalog,
		Generator: generator,
		Authorize: authz,
		Codes:     codes,
		Renderer:  renderer,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Listen)
	g.Go(func() error {
		<-gctx.Done()
		zapLog.Info("Shutdown signal received, stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Mocks.Watch {
		g.Go(func() error {
			return registry.Watch(gctx, catalog, 250*time.Millisecond, func(err error) {
				if err != nil {
					metrics.CatalogReloads.WithLabelValues("error").Inc()
					zapLog.Warn("catalog reload failed, keeping previous catalog", zap.Error(err))
					return
				}
				metrics.CatalogReloads.WithLabelValues("success").Inc()
				zapLog.Info("catalog reloaded", zap.Strings("services", catalog.Catalog().ServiceIDs()))
			})
		})
	}

	if cfg.Camunda.Enabled {
		workers, client, err := startWorkers(cfg, generator, authz, authzCfg, log, zapLog)
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			<-gctx.Done()
			zapLog.Info("Stopping workers...")
			workers.Close()
			return client.Close()
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	zapLog.Info("mock-response-service stopped gracefully")
	return nil
}

func startWorkers(cfg *config.Config, generator *generateresponse.Handler, authz *authorize.Service, authzCfg *authorize.Config, log logger.Logger, zapLog *zap.Logger) (*camunda.WorkerSet, *camunda.Client, error) {
	// --- Init Zeebe Client with retry ---
	var client *camunda.Client
	err := retryWithBackoff(func() error {
		var err error
		client, err = camunda.NewClient(cfg.Camunda)
		return err
	}, camunda.IsRetryableError, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		return nil, nil, err
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("broker", cfg.Camunda.BrokerAddress))

	authzHandler, err := authorize.NewHandler(authzCfg, authz, log)
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to create %s handler: %w", authorize.TaskType, err)
	}

	workers := camunda.NewWorkerSet(client.GetClient(), log)
	workers.StartWorker(generateresponse.TaskType, config.GetWorkerConfig(cfg, generateresponse.TaskType), generator.Handle)
	workers.StartWorker(authorize.TaskType, config.GetWorkerConfig(cfg, authorize.TaskType), authzHandler.Handle)
	zapLog.Info("Workers registered", zap.Strings("taskTypes", workers.TaskTypes()))

	return workers, client, nil
}
