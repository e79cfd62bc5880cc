// internal/workers/data-access/query-postgresql/handler_test.go
package querypostgresql

import (
	"context"
	"testing"
	"time"

	"admissions-workers/internal/common/logger"
	"admissions-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(LoadConfig(), db, logger.NewNoOpLogger()), mock
}

func studentColumns() []string {
	return []string{
		"profile_id", "birth_date", "residency_status", "grade_level", "graduation_year",
		"gpa_unweighted", "gpa_weighted", "best_sat_total", "best_act_composite",
		"existing_school_ids", "existing_program_ids",
	}
}

func TestExecute_StudentSnapshot(t *testing.T) {
	handler, mock := newTestHandler(t)

	birthDate := time.Date(2009, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT profile_id, birth_date, residency_status").
		WithArgs("profile-123").
		WillReturnRows(sqlmock.NewRows(studentColumns()).
			AddRow("profile-123", birthDate, "us_citizen", "11th", 2027,
				3.8, 4.1, 1450, nil, "{sch-1,sch-2}", "{}"))
	mock.ExpectQuery("SELECT name, level, status").
		WithArgs("profile-123").
		WillReturnRows(sqlmock.NewRows([]string{"name", "level", "status"}).
			AddRow("AP Biology", "AP", "completed").
			AddRow("Calculus", nil, "in_progress"))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentSnapshot),
		ProfileID: "profile-123",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	snapshot, ok := output.Data.(*models.StudentSnapshot)
	require.True(t, ok)
	assert.Equal(t, "profile-123", snapshot.ProfileID)
	require.NotNil(t, snapshot.BirthDate)
	assert.Equal(t, birthDate, *snapshot.BirthDate)
	require.NotNil(t, snapshot.GPAUnweighted)
	assert.Equal(t, 3.8, *snapshot.GPAUnweighted)
	assert.Nil(t, snapshot.BestACTComposite)
	assert.Equal(t, []string{"sch-1", "sch-2"}, snapshot.ExistingSchoolIDs)
	assert.Empty(t, snapshot.ExistingSummerProgramIDs)
	require.Len(t, snapshot.Courses, 2)
	assert.Equal(t, models.CourseStatusInProgress, snapshot.Courses[1].Status)
	assert.Empty(t, snapshot.Courses[1].Level)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_StudentSnapshot_AllOptionalFieldsNull(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT profile_id, birth_date, residency_status").
		WithArgs("profile-404").
		WillReturnRows(sqlmock.NewRows(studentColumns()).
			AddRow("profile-404", nil, nil, nil, nil, nil, nil, nil, nil, "{}", "{}"))
	mock.ExpectQuery("SELECT name, level, status").
		WithArgs("profile-404").
		WillReturnRows(sqlmock.NewRows([]string{"name", "level", "status"}))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentSnapshot),
		ProfileID: "profile-404",
	})
	require.NoError(t, err)

	snapshot := output.Data.(*models.StudentSnapshot)
	assert.Nil(t, snapshot.BirthDate)
	assert.Nil(t, snapshot.GPAUnweighted)
	assert.Nil(t, snapshot.BestSATTotal)
	assert.Empty(t, snapshot.Courses)
}

func TestExecute_StudentSnapshot_MissingProfileID(t *testing.T) {
	handler, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeStudentSnapshot),
	})
	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
}

func TestExecute_SchoolStatistics(t *testing.T) {
	handler, mock := newTestHandler(t)

	columns := []string{"id", "name", "city", "state", "sat_25", "sat_75",
		"act_25", "act_75", "avg_gpa_unweighted", "acceptance_rate"}
	mock.ExpectQuery("SELECT id, name, city, state, sat_25").
		WithArgs("CA").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("sch-1", "Example University", "Palo Alto", "CA", 1400, 1550, nil, nil, 3.7, 0.08).
			AddRow("sch-2", "State College", "Fresno", "CA", nil, nil, 22, 28, nil, 0.62))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeSchoolStatistics),
		Filters:   map[string]interface{}{"state": "CA"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)

	schools, ok := output.Data.([]models.SchoolStatistics)
	require.True(t, ok)
	require.NotNil(t, schools[0].SAT25)
	assert.Equal(t, 1400, *schools[0].SAT25)
	assert.Nil(t, schools[0].ACT25)
	require.NotNil(t, schools[1].AcceptanceRate)
	assert.Equal(t, 0.62, *schools[1].AcceptanceRate)
	assert.Nil(t, schools[1].AvgGPAUnweighted)
}

func TestExecute_ProgramConstraints(t *testing.T) {
	handler, mock := newTestHandler(t)

	deadline := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "name", "focus_area", "active", "min_grade", "max_grade",
		"min_age", "max_age", "min_gpa_unweighted", "min_gpa_weighted",
		"citizenship_requirement", "required_courses", "eligibility_notes",
		"start_date", "application_deadline"}
	mock.ExpectQuery("SELECT id, name, focus_area, active").
		WithArgs("STEM").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("prog-1", "Summer Research Lab", "STEM", true, 10, 12, nil, nil,
				3.5, nil, "us_citizen", "{Biology,Chemistry}", "", nil, deadline))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypePrograms),
		Filters:   map[string]interface{}{"focusArea": "STEM"},
	})
	require.NoError(t, err)

	programs, ok := output.Data.([]models.ProgramConstraint)
	require.True(t, ok)
	require.Len(t, programs, 1)
	assert.True(t, programs[0].Active)
	require.NotNil(t, programs[0].MinGrade)
	assert.Equal(t, 10, *programs[0].MinGrade)
	assert.Equal(t, []string{"Biology", "Chemistry"}, programs[0].RequiredCourses)
	require.NotNil(t, programs[0].ApplicationDeadline)
	assert.Equal(t, deadline, *programs[0].ApplicationDeadline)
}

func TestExecute_Subscription(t *testing.T) {
	handler, mock := newTestHandler(t)

	mock.ExpectQuery("SELECT user_id, tier, expires_at, is_valid").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "tier", "expires_at", "is_valid"}).
			AddRow("user-1", "premium", "2027-01-01T00:00:00Z", true))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeSubscription),
		UserID:    "user-1",
	})
	require.NoError(t, err)

	record, ok := output.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "premium", record["tier"])
	assert.Equal(t, true, record["isValid"])
}

func TestExecute_InvalidQueryType(t *testing.T) {
	handler, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), &Input{QueryType: "franchise_details"})
	assert.ErrorIs(t, err, ErrInvalidQueryType)
}

func TestExecute_NilInput(t *testing.T) {
	handler, _ := newTestHandler(t)

	_, err := handler.Execute(context.Background(), nil)
	assert.Error(t, err)
}
