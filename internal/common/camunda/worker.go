// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"admissions-workers/internal/common/metrics"
)

// JobHandler is implemented by every task handler. Handlers complete or fail
// the job themselves through the JobClient.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job)
}

type CamundaWorker struct {
	client   zbc.Client
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// WorkerOptions bundles the per-task tuning knobs.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

func NewWorker(
	client zbc.Client,
	taskType string,
	opts WorkerOptions,
	handler JobHandler,
	logger *zap.Logger,
) *CamundaWorker {
	instrumented := func(jobClient worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		timer := prometheus.NewTimer(metrics.WorkerJobDuration.WithLabelValues(taskType))
		defer func() {
			timer.ObserveDuration()
			metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
		}()
		handler.Handle(jobClient, job)
	}

	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(instrumented).
		MaxJobsActive(opts.MaxJobsActive)

	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	return &CamundaWorker{
		client:   client,
		worker:   builder.Open(),
		logger:   logger,
		taskType: taskType,
	}
}

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", zap.String("taskType", w.taskType))
}

func (w *CamundaWorker) Stop(ctx context.Context) {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
