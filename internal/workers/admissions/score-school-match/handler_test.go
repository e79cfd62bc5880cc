// internal/workers/admissions/score-school-match/handler_test.go
package scoreschoolmatch

import (
	"context"
	"testing"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int           { return &n }
func floatPtr(f float64) *float64 { return &f }

func createTestStudent() *models.StudentSnapshot {
	return &models.StudentSnapshot{
		ProfileID:     "profile-123",
		GPAUnweighted: floatPtr(3.9),
		BestSATTotal:  intPtr(1520),
	}
}

func createSelectiveSchool() *models.SchoolStatistics {
	return &models.SchoolStatistics{
		ID:               "school-1",
		Name:             "Selective University",
		SAT25:            intPtr(1400),
		SAT75:            intPtr(1550),
		AvgGPAUnweighted: floatPtr(3.7),
		AcceptanceRate:   floatPtr(0.08),
	}
}

// ==========================
// Scoring Scenarios
// ==========================

// Strong student at a selective school: SAT within (+10), GPA at the band's
// upper edge counts as above (+10), selectivity penalty (-10) → 60, target.
func TestScore_SelectiveSchoolScenario(t *testing.T) {
	result := Score(createTestStudent(), createSelectiveSchool())

	assert.Equal(t, models.MatchWithin, result.SATMatch)
	assert.Equal(t, models.MatchUnknown, result.ACTMatch)
	assert.Equal(t, models.MatchAbove, result.GPAMatch)
	assert.Equal(t, 60, result.OverallFit)
	assert.Equal(t, models.TierTarget, result.Tier)
}

func TestScore_SATClassification(t *testing.T) {
	tests := []struct {
		name     string
		sat      *int
		expected models.MetricMatch
		fit      int
	}{
		{"at 75th percentile is above", intPtr(1550), models.MatchAbove, 75},
		{"above 75th percentile", intPtr(1580), models.MatchAbove, 75},
		{"at 25th percentile is within", intPtr(1400), models.MatchWithin, 70},
		{"below 25th percentile", intPtr(1300), models.MatchBelow, 45},
		{"missing student score", nil, models.MatchUnknown, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := createTestStudent()
			student.BestSATTotal = tt.sat

			school := createSelectiveSchool()
			school.AcceptanceRate = nil // isolate the test-score effect

			result := Score(student, school)
			assert.Equal(t, tt.expected, result.SATMatch)
			assert.Equal(t, tt.fit, result.OverallFit)
		})
	}
}

func TestScore_MissingSchoolRangeIsUnknown(t *testing.T) {
	school := createSelectiveSchool()
	school.SAT25 = nil

	result := Score(createTestStudent(), school)
	assert.Equal(t, models.MatchUnknown, result.SATMatch)
}

func TestScore_ACTUsesSameWeights(t *testing.T) {
	student := &models.StudentSnapshot{BestACTComposite: intPtr(35)}
	school := &models.SchoolStatistics{ACT25: intPtr(30), ACT75: intPtr(34)}

	result := Score(student, school)
	assert.Equal(t, models.MatchAbove, result.ACTMatch)
	assert.Equal(t, 65, result.OverallFit) // 50 + 15
}

func TestScore_GPABand(t *testing.T) {
	tests := []struct {
		name     string
		gpa      float64
		avg      float64
		expected models.MetricMatch
	}{
		{"well above band", 4.0, 3.5, models.MatchAbove},
		{"at band upper edge", 3.9, 3.7, models.MatchAbove},
		{"inside band", 3.6, 3.7, models.MatchWithin},
		{"at band lower edge", 3.4, 3.7, models.MatchWithin},
		{"below band", 3.3, 3.7, models.MatchBelow},
		{"upper edge capped at 4.0", 4.0, 3.95, models.MatchAbove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			student := &models.StudentSnapshot{GPAUnweighted: floatPtr(tt.gpa)}
			school := &models.SchoolStatistics{AvgGPAUnweighted: floatPtr(tt.avg)}

			result := Score(student, school)
			assert.Equal(t, tt.expected, result.GPAMatch)
		})
	}
}

func TestScore_AcceptanceRateAdjustment(t *testing.T) {
	student := &models.StudentSnapshot{}

	tests := []struct {
		name string
		rate *float64
		fit  int
	}{
		{"under 10 percent penalized", floatPtr(0.05), 40},
		{"exactly 10 percent untouched", floatPtr(0.10), 50},
		{"mid range untouched", floatPtr(0.35), 50},
		{"over 50 percent rewarded", floatPtr(0.65), 55},
		{"missing rate untouched", nil, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			school := &models.SchoolStatistics{AcceptanceRate: tt.rate}
			result := Score(student, school)
			assert.Equal(t, tt.fit, result.OverallFit)
		})
	}
}

// ==========================
// Properties
// ==========================

func TestScore_ClampedToRange(t *testing.T) {
	weak := &models.StudentSnapshot{
		GPAUnweighted:    floatPtr(2.0),
		BestSATTotal:     intPtr(900),
		BestACTComposite: intPtr(18),
	}
	brutal := &models.SchoolStatistics{
		SAT25:            intPtr(1500),
		SAT75:            intPtr(1580),
		ACT25:            intPtr(34),
		ACT75:            intPtr(36),
		AvgGPAUnweighted: floatPtr(3.95),
		AcceptanceRate:   floatPtr(0.04),
	}

	result := Score(weak, brutal)
	assert.GreaterOrEqual(t, result.OverallFit, 0)
	assert.LessOrEqual(t, result.OverallFit, 100)
	assert.Equal(t, models.TierReach, result.Tier)

	strong := &models.StudentSnapshot{
		GPAUnweighted:    floatPtr(4.0),
		BestSATTotal:     intPtr(1600),
		BestACTComposite: intPtr(36),
	}
	open := &models.SchoolStatistics{
		SAT25:            intPtr(1000),
		SAT75:            intPtr(1200),
		ACT25:            intPtr(19),
		ACT75:            intPtr(25),
		AvgGPAUnweighted: floatPtr(3.0),
		AcceptanceRate:   floatPtr(0.80),
	}

	result = Score(strong, open)
	assert.LessOrEqual(t, result.OverallFit, 100)
	assert.Equal(t, models.TierSafety, result.Tier)
}

// Raising GPA while holding everything else fixed never moves gpaMatch from
// above to below.
func TestScore_GPAMonotonicity(t *testing.T) {
	school := createSelectiveSchool()

	order := map[models.MetricMatch]int{
		models.MatchBelow:  0,
		models.MatchWithin: 1,
		models.MatchAbove:  2,
	}

	prev := -1
	for gpa := 2.0; gpa <= 4.0; gpa += 0.05 {
		student := &models.StudentSnapshot{GPAUnweighted: floatPtr(gpa)}
		match := Score(student, school).GPAMatch
		require.GreaterOrEqual(t, order[match], prev, "gpa %f regressed classification", gpa)
		prev = order[match]
	}
}

func TestScore_Deterministic(t *testing.T) {
	student := createTestStudent()
	school := createSelectiveSchool()

	first := Score(student, school)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(student, school))
	}
}

// Pins the inverted tier naming: high fit is "safety", low fit is "reach".
func TestTierForScore_InvertedNaming(t *testing.T) {
	assert.Equal(t, models.TierSafety, TierForScore(100))
	assert.Equal(t, models.TierSafety, TierForScore(70))
	assert.Equal(t, models.TierTarget, TierForScore(69))
	assert.Equal(t, models.TierTarget, TierForScore(40))
	assert.Equal(t, models.TierReach, TierForScore(39))
	assert.Equal(t, models.TierReach, TierForScore(0))
}

// ==========================
// Handler Execute
// ==========================

func TestHandler_Execute(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewNoOpLogger())

	output, err := handler.Execute(context.Background(), &Input{
		Student: createTestStudent(),
		School:  createSelectiveSchool(),
	})
	require.NoError(t, err)
	assert.Equal(t, 60, output.Match.OverallFit)
}

func TestHandler_Execute_MissingInputs(t *testing.T) {
	handler := NewHandler(LoadConfig(), logger.NewNoOpLogger())

	_, err := handler.Execute(context.Background(), &Input{School: createSelectiveSchool()})
	assert.Error(t, err)

	_, err = handler.Execute(context.Background(), &Input{Student: createTestStudent()})
	assert.Error(t, err)
}
