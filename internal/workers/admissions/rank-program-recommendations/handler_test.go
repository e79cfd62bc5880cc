// internal/workers/admissions/rank-program-recommendations/handler_test.go
package rankprogramrecommendations

import (
	"context"
	"testing"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int              { return &n }
func timePtr(t time.Time) *time.Time { return &t }

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestHandler() *Handler {
	h := NewHandler(LoadConfig(), logger.NewNoOpLogger())
	h.now = func() time.Time { return testNow }
	return h
}

func createTestStudent() *models.StudentSnapshot {
	return &models.StudentSnapshot{
		ProfileID:       "profile-123",
		ResidencyStatus: "us_citizen",
		GradeLevel:      "11th",
	}
}

func openProgram(id string) models.ProgramConstraint {
	return models.ProgramConstraint{
		ID:     id,
		Name:   id,
		Active: true,
	}
}

// ==========================
// Ordering
// ==========================

func TestExecute_VerdictPriorityOrdersFirst(t *testing.T) {
	handler := newTestHandler()

	needsCheck := openProgram("needs-check")
	needsCheck.EligibilityNotes = "Portfolio review required"

	clean := openProgram("clean")

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(),
		Programs: []models.ProgramConstraint{needsCheck, clean},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 2)

	assert.Equal(t, "clean", output.Programs[0].Program.ID)
	assert.Equal(t, models.VerdictEligible, output.Programs[0].Verdict)
	assert.Equal(t, "needs-check", output.Programs[1].Program.ID)
	assert.Equal(t, models.VerdictCheckRequired, output.Programs[1].Verdict)
}

func TestExecute_DeadlineBreaksTies(t *testing.T) {
	handler := newTestHandler()

	late := openProgram("deadline-late")
	late.ApplicationDeadline = timePtr(testNow.AddDate(0, 3, 0))

	soon := openProgram("deadline-soon")
	soon.ApplicationDeadline = timePtr(testNow.AddDate(0, 1, 0))

	none := openProgram("no-deadline")

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(),
		Programs: []models.ProgramConstraint{none, late, soon},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 3)

	assert.Equal(t, "deadline-soon", output.Programs[0].Program.ID)
	assert.Equal(t, "deadline-late", output.Programs[1].Program.ID)
	assert.Equal(t, "no-deadline", output.Programs[2].Program.ID)
}

func TestExecute_UnknownSortsAfterCheckRequired(t *testing.T) {
	handler := newTestHandler()

	unknown := openProgram("gpa-unknown")
	unknown.MinGPAUnweighted = func(f float64) *float64 { return &f }(3.5)

	check := openProgram("notes")
	check.EligibilityNotes = "Interview"

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(), // no GPA on file
		Programs: []models.ProgramConstraint{unknown, check},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 2)

	assert.Equal(t, models.VerdictCheckRequired, output.Programs[0].Verdict)
	assert.Equal(t, models.VerdictUnknown, output.Programs[1].Verdict)
}

// ==========================
// Filtering
// ==========================

func TestExecute_IneligibleExcluded(t *testing.T) {
	handler := newTestHandler()

	seniorsOnly := openProgram("seniors-only")
	seniorsOnly.MinGrade = intPtr(12)

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(), // 11th grade
		Programs: []models.ProgramConstraint{seniorsOnly, openProgram("open")},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 1)
	assert.Equal(t, "open", output.Programs[0].Program.ID)
}

func TestExecute_InactiveAndPastDeadlineExcluded(t *testing.T) {
	handler := newTestHandler()

	inactive := openProgram("inactive")
	inactive.Active = false

	expired := openProgram("expired")
	expired.ApplicationDeadline = timePtr(testNow.AddDate(0, -1, 0))

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(),
		Programs: []models.ProgramConstraint{inactive, expired, openProgram("open")},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 1)
	assert.Equal(t, "open", output.Programs[0].Program.ID)
}

func TestExecute_FocusAreaFilter(t *testing.T) {
	handler := newTestHandler()

	stem := openProgram("stem-camp")
	stem.FocusArea = "STEM"

	arts := openProgram("arts-camp")
	arts.FocusArea = "Arts"

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(),
		Focus:    "stem",
		Programs: []models.ProgramConstraint{stem, arts},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 1)
	assert.Equal(t, "stem-camp", output.Programs[0].Program.ID)
}

func TestExecute_ExcludesExistingPrograms(t *testing.T) {
	handler := newTestHandler()

	student := createTestStudent()
	student.ExistingSummerProgramIDs = []string{"already-saved"}

	output, err := handler.Execute(context.Background(), &Input{
		Student:  student,
		Programs: []models.ProgramConstraint{openProgram("already-saved"), openProgram("fresh")},
	})
	require.NoError(t, err)
	require.Len(t, output.Programs, 1)
	assert.Equal(t, "fresh", output.Programs[0].Program.ID)
}

func TestExecute_DefaultLimit(t *testing.T) {
	handler := newTestHandler()

	programs := make([]models.ProgramConstraint, 0, 10)
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		programs = append(programs, openProgram(id))
	}

	output, err := handler.Execute(context.Background(), &Input{
		Student:  createTestStudent(),
		Programs: programs,
	})
	require.NoError(t, err)
	assert.Len(t, output.Programs, 6)
}

func TestExecute_MissingStudent(t *testing.T) {
	handler := newTestHandler()

	_, err := handler.Execute(context.Background(), &Input{})
	assert.Error(t, err)
}
