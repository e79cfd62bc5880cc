// internal/workers/admissions/rank-program-recommendations/handler.go
package rankprogramrecommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"
	evaluateeligibility "admissions-workers/internal/workers/admissions/evaluate-eligibility"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "rank-program-recommendations"
)

type Handler struct {
	config *Config
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
		now:    func() time.Time { return time.Now().UTC() },
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
	now := h.now()

	ranked := make([]models.RankedProgram, 0, len(input.Programs))
	for _, program := range input.Programs {
		if !isCandidate(input.Student, &program, input.Focus, now) {
			continue
		}

		eval := evaluateeligibility.Evaluate(input.Student, &program, now)
		if eval.Verdict == models.VerdictIneligible {
			continue
		}

		ranked = append(ranked, models.RankedProgram{
			Program: program,
			Verdict: eval.Verdict,
			Summary: eval.Summary,
		})
	}

	sortRanked(ranked)

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	h.logger.Info("programs ranked", map[string]interface{}{
		"profileId":  input.Student.ProfileID,
		"candidates": len(input.Programs),
		"returned":   len(ranked),
		"focus":      input.Focus,
	})

	return &Output{Programs: ranked}, nil
}

// isCandidate applies the structural filters that precede eligibility:
// candidates must be active, have an identifier, not be past their
// application deadline, not already be on the student's list, and match the
// focus-area filter when one is given.
func isCandidate(student *models.StudentSnapshot, program *models.ProgramConstraint, focus string, now time.Time) bool {
	if program.ID == "" || !program.Active {
		return false
	}
	if program.ApplicationDeadline != nil && program.ApplicationDeadline.Before(now) {
		return false
	}
	if student.HasProgram(program.ID) {
		return false
	}
	if focus != "" && !strings.EqualFold(program.FocusArea, focus) {
		return false
	}
	return true
}

// sortRanked orders by verdict priority (eligible first), then by nearest
// application deadline with no-deadline candidates last, then by name for a
// reproducible order.
func sortRanked(ranked []models.RankedProgram) {
	sort.SliceStable(ranked, func(i, j int) bool {
		pi, pj := ranked[i].Verdict.RankPriority(), ranked[j].Verdict.RankPriority()
		if pi != pj {
			return pi < pj
		}

		di, dj := ranked[i].Program.ApplicationDeadline, ranked[j].Program.ApplicationDeadline
		switch {
		case di == nil && dj == nil:
			return ranked[i].Program.Name < ranked[j].Program.Name
		case di == nil:
			return false
		case dj == nil:
			return true
		case !di.Equal(*dj):
			return di.Before(*dj)
		}
		return ranked[i].Program.Name < ranked[j].Program.Name
	})
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
