// internal/workers/admissions/rank-school-recommendations/handler.go
package rankschoolrecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"
	scoreschoolmatch "admissions-workers/internal/workers/admissions/score-school-match"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-school-recommendations"
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		h.failJob(client, job, "RANKING_FAILED", err.Error())
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

	scored := scoreCandidates(input.Student, input.Schools)

	var ranked []models.RankedSchool
	if input.Tier != "" {
		tier := models.Tier(input.Tier)
		ranked = rankWithinTier(filterTier(scored, tier), tier)
	} else {
		ranked = balancedSlate(scored, h.config.PerTier)
	}

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	h.logger.Info("schools ranked", map[string]interface{}{
		"profileId":  input.Student.ProfileID,
		"candidates": len(input.Schools),
		"returned":   len(ranked),
		"tierFilter": input.Tier,
	})

	return &Output{Schools: ranked}, nil
}

// scoreCandidates computes a MatchResult for every candidate not already on
// the student's list. Candidates without an identifier are skipped rather
// than failing the whole slate.
func scoreCandidates(student *models.StudentSnapshot, schools []models.SchoolStatistics) []models.RankedSchool {
	scored := make([]models.RankedSchool, 0, len(schools))
	for _, school := range schools {
		if school.ID == "" || student.HasSchool(school.ID) {
			continue
		}
		scored = append(scored, models.RankedSchool{
			School: school,
			Match:  scoreschoolmatch.Score(student, &school),
		})
	}
	return scored
}

func filterTier(scored []models.RankedSchool, tier models.Tier) []models.RankedSchool {
	filtered := make([]models.RankedSchool, 0, len(scored))
	for _, s := range scored {
		if s.Match.Tier == tier {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// rankWithinTier orders one tier's candidates. Reach schools sort by
// ascending acceptance rate so the most selective lead; other tiers sort by
// descending fit score. School name breaks remaining ties to keep the order
// reproducible.
func rankWithinTier(scored []models.RankedSchool, tier models.Tier) []models.RankedSchool {
	ranked := append([]models.RankedSchool(nil), scored...)

	if tier == models.TierReach {
		sort.SliceStable(ranked, func(i, j int) bool {
			ri, rj := ranked[i].School.AcceptanceRate, ranked[j].School.AcceptanceRate
			switch {
			case ri == nil && rj == nil:
				return ranked[i].School.Name < ranked[j].School.Name
			case ri == nil:
				return false
			case rj == nil:
				return true
			case *ri != *rj:
				return *ri < *rj
			}
			return ranked[i].School.Name < ranked[j].School.Name
		})
		return ranked
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Match.OverallFit != ranked[j].Match.OverallFit {
			return ranked[i].Match.OverallFit > ranked[j].Match.OverallFit
		}
		return ranked[i].School.Name < ranked[j].School.Name
	})
	return ranked
}

// balancedSlate takes up to perTier candidates from each tier, concatenated
// reach then target then safety.
func balancedSlate(scored []models.RankedSchool, perTier int) []models.RankedSchool {
	slate := make([]models.RankedSchool, 0, 3*perTier)
	for _, tier := range []models.Tier{models.TierReach, models.TierTarget, models.TierSafety} {
		ranked := rankWithinTier(filterTier(scored, tier), tier)
		if len(ranked) > perTier {
			ranked = ranked[:perTier]
		}
		slate = append(slate, ranked...)
	}
	return slate
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
