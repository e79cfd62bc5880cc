// internal/workers/infrastructure/invalidate-recommendation-cache/handler.go
package invalidaterecommendationcache

import (
	"context"
	"encoding/json"
	"fmt"

	"admissions-workers/internal/common/cache"
	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "invalidate-recommendation-cache"
)

type Handler struct {
	config *Config
	cache  *cache.RecommendationCache
	logger logger.Logger
}

func NewHandler(config *Config, c *cache.RecommendationCache, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		cache:  c,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "CACHE_INVALIDATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ProfileID == "" {
		return nil, fmt.Errorf("missing profileId")
	}

	removed, err := h.cache.Invalidate(ctx, input.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("invalidate cache for profile %s: %w", input.ProfileID, err)
	}

	h.logger.Info("recommendation cache invalidated", map[string]interface{}{
		"profileId":   input.ProfileID,
		"keysRemoved": removed,
		"reason":      input.Reason,
	})

	return &Output{Invalidated: true, KeysRemoved: removed}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
