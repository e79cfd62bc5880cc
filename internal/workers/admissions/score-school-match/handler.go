// internal/workers/admissions/score-school-match/handler.go
package scoreschoolmatch

import (
	"context"
	"encoding/json"
	"fmt"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "score-school-match"

	neutralScore = 50

	testAboveBonus   = 15
	testWithinBonus  = 10
	testBelowPenalty = 15

	gpaAboveBonus   = 10
	gpaWithinBonus  = 5
	gpaBelowPenalty = 10

	// GPA tolerance band around the school average
	gpaBandBelow = 0.3
	gpaBandAbove = 0.2

	selectivityPenalty  = 10 // acceptance rate under 10%
	accessibilityBonus  = 5  // acceptance rate over 50%
	selectivityCutoff   = 0.10
	accessibilityCutoff = 0.50
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
		h.failJob(client, job, "MATCH_SCORE_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Student == nil {
		return nil, fmt.Errorf("missing student snapshot")
	}
	if input.School == nil {
		return nil, fmt.Errorf("missing school statistics")
	}

	match := Score(input.Student, input.School)

	h.logger.Info("school match scored", map[string]interface{}{
		"profileId":  input.Student.ProfileID,
		"schoolId":   input.School.ID,
		"overallFit": match.OverallFit,
		"tier":       string(match.Tier),
	})

	return &Output{Match: match}, nil
}

// Score computes the statistical fit between a student and a school. Starts
// from a neutral 50, adjusts per metric, clamps to [0, 100], and assigns a
// tier from the clamped score. Pure function; missing data on either side of
// a metric yields an `unknown` classification with no score adjustment.
func Score(student *models.StudentSnapshot, school *models.SchoolStatistics) models.MatchResult {
	score := neutralScore

	satMatch := classifyTestScore(student.BestSATTotal, school.SAT25, school.SAT75)
	score += testAdjustment(satMatch)

	actMatch := classifyTestScore(student.BestACTComposite, school.ACT25, school.ACT75)
	score += testAdjustment(actMatch)

	gpaMatch := classifyGPA(student.GPAUnweighted, school.AvgGPAUnweighted)
	switch gpaMatch {
	case models.MatchAbove:
		score += gpaAboveBonus
	case models.MatchWithin:
		score += gpaWithinBonus
	case models.MatchBelow:
		score -= gpaBelowPenalty
	}

	if school.AcceptanceRate != nil {
		switch {
		case *school.AcceptanceRate < selectivityCutoff:
			score -= selectivityPenalty
		case *school.AcceptanceRate > accessibilityCutoff:
			score += accessibilityBonus
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.MatchResult{
		Tier:       TierForScore(score),
		SATMatch:   satMatch,
		ACTMatch:   actMatch,
		GPAMatch:   gpaMatch,
		OverallFit: score,
	}
}

// TierForScore maps a clamped fit score to its tier. The naming is inverted
// relative to common usage: a high fit score yields "safety".
func TierForScore(score int) models.Tier {
	switch {
	case score >= 70:
		return models.TierSafety
	case score >= 40:
		return models.TierTarget
	default:
		return models.TierReach
	}
}

func classifyTestScore(value, p25, p75 *int) models.MetricMatch {
	if value == nil || p25 == nil || p75 == nil {
		return models.MatchUnknown
	}
	switch {
	case *value >= *p75:
		return models.MatchAbove
	case *value >= *p25:
		return models.MatchWithin
	default:
		return models.MatchBelow
	}
}

func testAdjustment(match models.MetricMatch) int {
	switch match {
	case models.MatchAbove:
		return testAboveBonus
	case models.MatchWithin:
		return testWithinBonus
	case models.MatchBelow:
		return -testBelowPenalty
	default:
		return 0
	}
}

// classifyGPA compares the student's unweighted GPA against a tolerance band
// around the school average: [avg-0.3, min(avg+0.2, 4.0)]. A GPA at or above
// the band's upper edge counts as above.
func classifyGPA(gpa, avg *float64) models.MetricMatch {
	if gpa == nil || avg == nil {
		return models.MatchUnknown
	}

	lower := *avg - gpaBandBelow
	upper := *avg + gpaBandAbove
	if upper > 4.0 {
		upper = 4.0
	}

	switch {
	case *gpa >= upper:
		return models.MatchAbove
	case *gpa >= lower:
		return models.MatchWithin
	default:
		return models.MatchBelow
	}
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
