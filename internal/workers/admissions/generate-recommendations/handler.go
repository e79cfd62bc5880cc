// internal/workers/admissions/generate-recommendations/handler.go
package generaterecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "generate-recommendations"
)

// BundleCache is the slice of the recommendation cache this worker needs.
type BundleCache interface {
	Get(ctx context.Context, profileID string, limit int) (*models.RecommendationBundle, bool, error)
	Set(ctx context.Context, bundle *models.RecommendationBundle, limit int) error
}

type Handler struct {
	config    *Config
	cache     BundleCache
	generator NarrativeGenerator
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(config *Config, cache BundleCache, generator NarrativeGenerator, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		cache:     cache,
		generator: generator,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:       func() time.Time { return time.Now().UTC() },
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
		h.failJob(client, job, "GENERATION_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Student == nil {
		return nil, fmt.Errorf("missing student snapshot")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = h.config.DefaultLimit
	}
	profileID := input.Student.ProfileID

	if h.cache != nil && !input.ForceRefresh {
		cached, found, err := h.cache.Get(ctx, profileID, limit)
		if err != nil {
			// Cache trouble degrades to a recompute, never to a failure
			h.logger.Warn("cache read failed, recomputing", map[string]interface{}{
				"profileId": profileID,
				"error":     err.Error(),
			})
		} else if found {
			h.logger.Info("bundle served from cache", map[string]interface{}{
				"profileId": profileID,
			})
			return &Output{Bundle: cached, FromCache: true}, nil
		}
	}

	bundle := &models.RecommendationBundle{
		BundleID:    uuid.NewString(),
		ProfileID:   profileID,
		Schools:     append([]models.RankedSchool(nil), input.Schools...),
		Programs:    append([]models.RankedProgram(nil), input.Programs...),
		GeneratedAt: h.now(),
	}

	h.attachNarratives(ctx, bundle)

	if h.cache != nil {
		if err := h.cache.Set(ctx, bundle, limit); err != nil {
			h.logger.Warn("cache write failed", map[string]interface{}{
				"profileId": profileID,
				"error":     err.Error(),
			})
		}
	}

	h.logger.Info("recommendation bundle generated", map[string]interface{}{
		"profileId": profileID,
		"bundleId":  bundle.BundleID,
		"schools":   len(bundle.Schools),
		"programs":  len(bundle.Programs),
	})

	return &Output{Bundle: bundle}, nil
}

// attachNarratives asks the generator for per-candidate reasoning and merges
// it in. Generation is best effort: on any failure the bundle keeps its
// deterministic entries and ships without narratives.
func (h *Handler) attachNarratives(ctx context.Context, bundle *models.RecommendationBundle) {
	if h.generator == nil {
		return
	}

	req := buildNarrativeRequest(bundle)
	if len(req.Candidates) == 0 {
		return
	}

	start := time.Now()
	payload, err := h.generator.Generate(ctx, req)
	metrics.LLMGenerationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		h.logger.Warn("narrative generation skipped", map[string]interface{}{
			"profileId": bundle.ProfileID,
			"error":     err.Error(),
		})
		return
	}

	byID := make(map[string]string, len(payload.Narratives))
	for _, n := range payload.Narratives {
		byID[n.ID] = n.Narrative
	}

	for i := range bundle.Schools {
		if text, ok := byID[bundle.Schools[i].School.ID]; ok {
			bundle.Schools[i].Narrative = text
		}
	}
	for i := range bundle.Programs {
		if text, ok := byID[bundle.Programs[i].Program.ID]; ok {
			bundle.Programs[i].Narrative = text
		}
	}
}

func buildNarrativeRequest(bundle *models.RecommendationBundle) *NarrativeRequest {
	req := &NarrativeRequest{ProfileID: bundle.ProfileID}

	for _, s := range bundle.Schools {
		req.Candidates = append(req.Candidates, NarrativeCandidate{
			ID:   s.School.ID,
			Name: s.School.Name,
			Kind: "school",
			Tier: string(s.Match.Tier),
			Fit:  s.Match.OverallFit,
		})
	}
	for _, p := range bundle.Programs {
		req.Candidates = append(req.Candidates, NarrativeCandidate{
			ID:      p.Program.ID,
			Name:    p.Program.Name,
			Kind:    "program",
			Verdict: string(p.Verdict),
		})
	}

	return req
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
