// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"admissions-workers/internal/common/cache"
	"admissions-workers/internal/common/camunda"
	"admissions-workers/internal/common/config"
	"admissions-workers/internal/common/database"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/observability"

	// Admissions Workers (5)
	ee "admissions-workers/internal/workers/admissions/evaluate-eligibility"
	gr "admissions-workers/internal/workers/admissions/generate-recommendations"
	rpr "admissions-workers/internal/workers/admissions/rank-program-recommendations"
	rsr "admissions-workers/internal/workers/admissions/rank-school-recommendations"
	ssm "admissions-workers/internal/workers/admissions/score-school-match"

	// Infrastructure Workers (2)
	irc "admissions-workers/internal/workers/infrastructure/invalidate-recommendation-cache"
	vs "admissions-workers/internal/workers/infrastructure/validate-subscription"

	// Data Access Workers (2)
	qe "admissions-workers/internal/workers/data-access/query-elasticsearch"
	qp "admissions-workers/internal/workers/data-access/query-postgresql"

	// Communication Workers (1)
	sn "admissions-workers/internal/workers/communication/send-notification"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
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

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var camundaClient *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		camundaClient, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         30 * time.Second,
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping()
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Shared recommendation cache ---
	bundleCache := cache.NewRecommendationCache(
		redis.Client,
		config.GetDuration(cfg.Recommendations.CacheTTL),
		log,
	)

	// --- START: Register ALL 10 Workers ---

	// --- 1. Admissions Workers (5) ---
	if cfg.Workers[ee.TaskType].Enabled {
		handler := ee.NewHandler(
			&ee.Config{
				Timeout: config.GetDuration(cfg.Workers[ee.TaskType].Timeout),
			},
			log,
		)
		startWorker(camundaClient, ee.TaskType, cfg.Workers[ee.TaskType], handler, zapLog)
	}

	if cfg.Workers[ssm.TaskType].Enabled {
		handler := ssm.NewHandler(
			&ssm.Config{
				Timeout: config.GetDuration(cfg.Workers[ssm.TaskType].Timeout),
			},
			log,
		)
		startWorker(camundaClient, ssm.TaskType, cfg.Workers[ssm.TaskType], handler, zapLog)
	}

	if cfg.Workers[rsr.TaskType].Enabled {
		handler := rsr.NewHandler(
			&rsr.Config{
				Timeout:      config.GetDuration(cfg.Workers[rsr.TaskType].Timeout),
				DefaultLimit: cfg.Recommendations.DefaultLimit,
				PerTier:      cfg.Recommendations.SlatePerTier,
			},
			log,
		)
		startWorker(camundaClient, rsr.TaskType, cfg.Workers[rsr.TaskType], handler, zapLog)
	}

	if cfg.Workers[rpr.TaskType].Enabled {
		handler := rpr.NewHandler(
			&rpr.Config{
				Timeout:      config.GetDuration(cfg.Workers[rpr.TaskType].Timeout),
				DefaultLimit: cfg.Recommendations.DefaultLimit,
			},
			log,
		)
		startWorker(camundaClient, rpr.TaskType, cfg.Workers[rpr.TaskType], handler, zapLog)
	}

	if cfg.Workers[gr.TaskType].Enabled {
		var generator gr.NarrativeGenerator
		if cfg.APIs.GenAI.BaseURL != "" {
			generator = gr.NewGenAIGenerator(cfg.APIs.GenAI.BaseURL, cfg.APIs.GenAI.APIKey, 2)
		}
		handler := gr.NewHandler(
			&gr.Config{
				Timeout:      config.GetDuration(cfg.Workers[gr.TaskType].Timeout),
				GenAIBaseURL: cfg.APIs.GenAI.BaseURL,
				GenAIAPIKey:  cfg.APIs.GenAI.APIKey,
				MaxRetries:   2,
				DefaultLimit: cfg.Recommendations.DefaultLimit,
			},
			bundleCache, generator, log,
		)
		startWorker(camundaClient, gr.TaskType, cfg.Workers[gr.TaskType], handler, zapLog)
	}

	// --- 2. Infrastructure Workers (2) ---
	if cfg.Workers[vs.TaskType].Enabled {
		handler := vs.NewHandler(
			&vs.Config{
				Timeout:  config.GetDuration(cfg.Workers[vs.TaskType].Timeout),
				CacheTTL: 5 * time.Minute,
			},
			pg.DB, redis.Client, log,
		)
		startWorker(camundaClient, vs.TaskType, cfg.Workers[vs.TaskType], handler, zapLog)
	}

	if cfg.Workers[irc.TaskType].Enabled {
		handler := irc.NewHandler(
			&irc.Config{
				Timeout: config.GetDuration(cfg.Workers[irc.TaskType].Timeout),
			},
			bundleCache, log,
		)
		startWorker(camundaClient, irc.TaskType, cfg.Workers[irc.TaskType], handler, zapLog)
	}

	// --- 3. Data Access Workers (2) ---
	if cfg.Workers[qp.TaskType].Enabled {
		handler := qp.NewHandler(
			&qp.Config{
				Timeout: config.GetDuration(cfg.Workers[qp.TaskType].Timeout),
			},
			pg.DB, log,
		)
		startWorker(camundaClient, qp.TaskType, cfg.Workers[qp.TaskType], handler, zapLog)
	}

	if cfg.Workers[qe.TaskType].Enabled {
		handler := qe.NewHandler(
			&qe.Config{
				Timeout: config.GetDuration(cfg.Workers[qe.TaskType].Timeout),
			},
			esClient.Client, log,
		)
		startWorker(camundaClient, qe.TaskType, cfg.Workers[qe.TaskType], handler, zapLog)
	}

	// --- 4. Communication Workers (1) ---
	if cfg.Workers[sn.TaskType].Enabled {
		handler, err := sn.NewHandler(
			&sn.Config{
				EmailEnabled: cfg.Notifications.Email.Enabled,
				SMSEnabled:   cfg.Notifications.SMS.Enabled,
				FromEmail:    cfg.Notifications.Email.FromEmail,
				AWSRegion:    cfg.Notifications.AWS.Region,
				Timeout:      config.GetDuration(cfg.Workers[sn.TaskType].Timeout),
			},
			pg.DB, log,
		)
		if err != nil {
			zapLog.Fatal("failed to create send-notification handler", zap.Error(err))
		}
		startWorker(camundaClient, sn.TaskType, cfg.Workers[sn.TaskType], handler, zapLog)
	}

	zapLog.Info("All 10 workers registered successfully")

	// --- Health & Metrics Server ---
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "healthy",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "ready",
				"time":   time.Now().Format(time.RFC3339),
			})
		})
		http.Handle("/metrics", promhttp.Handler())
		zapLog.Info("Health/Metrics server listening on :8080")
		if err := http.ListenAndServe(":8080", nil); err != nil {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	for _, w := range activeWorkers {
		w.Stop(shutdownCtx)
	}

	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

var activeWorkers []*camunda.CamundaWorker

func startWorker(client *camunda.Client, taskType string, wcfg config.WorkerConfig, handler camunda.JobHandler, log *zap.Logger) {
	if !wcfg.Enabled {
		log.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	w := camunda.NewWorker(client.GetClient(), taskType, camunda.WorkerOptions{
		MaxJobsActive: wcfg.MaxJobsActive,
		Timeout:       time.Duration(wcfg.Timeout) * time.Millisecond,
	}, handler, log)
	w.Start()
	activeWorkers = append(activeWorkers, w)
}
