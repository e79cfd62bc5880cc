// internal/workers/admissions/evaluate-eligibility/handler.go
package evaluateeligibility

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/common/metrics"
	"admissions-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "evaluate-eligibility"

	// Unparseable grade levels fall back to junior year. This is a documented
	// approximation, not an error.
	DefaultGradeLevel = 11
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
		h.failJob(client, job, "ELIGIBILITY_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Student == nil {
		return nil, fmt.Errorf("missing student snapshot")
	}
	if input.Program == nil {
		return nil, fmt.Errorf("missing program constraint")
	}

	result := Evaluate(input.Student, input.Program, time.Now().UTC())

	h.logger.Info("eligibility evaluated", map[string]interface{}{
		"profileId": input.Student.ProfileID,
		"programId": input.Program.ID,
		"verdict":   string(result.Verdict),
	})

	return &Output{
		Verdict: result.Verdict,
		Summary: result.Summary,
	}, nil
}

// Evaluation pairs the verdict with its human-readable explanation.
type Evaluation struct {
	Verdict models.EligibilityVerdict
	Summary string
}

// Evaluate checks a student against a program's structural requirements.
// Each rule produces a verdict factor and the overall verdict is the most
// restrictive factor. Pure function of its inputs; `now` anchors age
// computation when the program has no start date.
func Evaluate(student *models.StudentSnapshot, program *models.ProgramConstraint, now time.Time) Evaluation {
	verdict := models.VerdictEligible
	var reasons []string

	restrict := func(factor models.EligibilityVerdict, reason string) {
		verdict = models.MoreRestrictive(verdict, factor)
		if reason != "" {
			reasons = append(reasons, reason)
		}
	}

	// Grade window
	grade := ParseGradeLevel(student.GradeLevel)
	if program.MinGrade != nil && grade < *program.MinGrade {
		restrict(models.VerdictIneligible, fmt.Sprintf("grade %d below minimum %d", grade, *program.MinGrade))
	}
	if program.MaxGrade != nil && grade > *program.MaxGrade {
		restrict(models.VerdictIneligible, fmt.Sprintf("grade %d above maximum %d", grade, *program.MaxGrade))
	}

	// Age window, anchored to the program start when known
	if program.MinAge != nil || program.MaxAge != nil {
		if student.BirthDate == nil {
			restrict(models.VerdictUnknown, "age requirement set but birth date unknown")
		} else {
			ref := now
			if program.StartDate != nil {
				ref = *program.StartDate
			}
			age := yearsBetween(*student.BirthDate, ref)
			if program.MinAge != nil && age < *program.MinAge {
				restrict(models.VerdictIneligible, fmt.Sprintf("age %d below minimum %d", age, *program.MinAge))
			}
			if program.MaxAge != nil && age > *program.MaxAge {
				restrict(models.VerdictIneligible, fmt.Sprintf("age %d above maximum %d", age, *program.MaxAge))
			}
		}
	}

	// GPA minimums. A missing student GPA cannot be disproven, so it stays
	// unknown rather than ineligible.
	if program.MinGPAUnweighted != nil {
		switch {
		case student.GPAUnweighted == nil:
			restrict(models.VerdictUnknown, "unweighted GPA requirement set but GPA unknown")
		case *student.GPAUnweighted < *program.MinGPAUnweighted:
			restrict(models.VerdictIneligible, fmt.Sprintf("unweighted GPA %.2f below minimum %.2f", *student.GPAUnweighted, *program.MinGPAUnweighted))
		}
	}
	if program.MinGPAWeighted != nil {
		switch {
		case student.GPAWeighted == nil:
			restrict(models.VerdictUnknown, "weighted GPA requirement set but GPA unknown")
		case *student.GPAWeighted < *program.MinGPAWeighted:
			restrict(models.VerdictIneligible, fmt.Sprintf("weighted GPA %.2f below minimum %.2f", *student.GPAWeighted, *program.MinGPAWeighted))
		}
	}

	// Citizenship is never an automatic disqualifier since residency data is
	// often incomplete.
	if program.CitizenshipRequirement != "" {
		if !strings.EqualFold(strings.TrimSpace(student.ResidencyStatus), strings.TrimSpace(program.CitizenshipRequirement)) {
			restrict(models.VerdictCheckRequired, fmt.Sprintf("citizenship requirement %q needs manual confirmation", program.CitizenshipRequirement))
		}
	}

	// Required courses, matched case-insensitively against completed or
	// in-progress transcript entries
	for _, required := range program.RequiredCourses {
		if !hasCourse(student.Courses, required) {
			restrict(models.VerdictCheckRequired, fmt.Sprintf("required course %q not found on transcript", required))
		}
	}

	// Free-text notes encode conditions we cannot check structurally
	if strings.TrimSpace(program.EligibilityNotes) != "" {
		restrict(models.VerdictCheckRequired, "program has additional eligibility notes to review")
	}

	summary := "Meets all structural requirements"
	if len(reasons) > 0 {
		summary = strings.Join(reasons, "; ")
	}

	return Evaluation{Verdict: verdict, Summary: summary}
}

// ParseGradeLevel maps a free-text grade level to an integer in [9, 12],
// falling back to DefaultGradeLevel when the text is unparseable.
func ParseGradeLevel(s string) int {
	text := strings.ToLower(strings.TrimSpace(s))

	switch text {
	case "freshman":
		return 9
	case "sophomore":
		return 10
	case "junior":
		return 11
	case "senior":
		return 12
	}

	digits := strings.Builder{}
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		} else if digits.Len() > 0 {
			break
		}
	}

	if n, err := strconv.Atoi(digits.String()); err == nil && n >= 9 && n <= 12 {
		return n
	}
	return DefaultGradeLevel
}

func yearsBetween(birth, ref time.Time) int {
	years := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		years--
	}
	return years
}

func hasCourse(courses []models.CourseRecord, required string) bool {
	needle := strings.ToLower(strings.TrimSpace(required))
	if needle == "" {
		return true
	}
	for _, c := range courses {
		if c.Status != models.CourseStatusCompleted && c.Status != models.CourseStatusInProgress {
			continue
		}
		if strings.Contains(strings.ToLower(c.Name), needle) {
			return true
		}
	}
	return false
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
