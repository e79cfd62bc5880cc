// internal/workers/data-access/query-postgresql/queries/program.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"admissions-workers/internal/models"

	"github.com/lib/pq"
)

// ProgramConstraints loads active summer programs for the program ranker.
// An optional "focusArea" filter narrows the pool at the database level; the
// ranker applies its own case-insensitive match on top.
func ProgramConstraints(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	query := `
		SELECT id, name, focus_area, active, min_grade, max_grade, min_age, max_age,
		       min_gpa_unweighted, min_gpa_weighted, citizenship_requirement,
		       required_courses, eligibility_notes, start_date, application_deadline
		FROM summer_programs
		WHERE active = TRUE`
	args := []interface{}{}

	filters, _ := params["filters"].(map[string]interface{})
	if focus, ok := filters["focusArea"].(string); ok && focus != "" {
		query += ` AND LOWER(focus_area) = LOWER($1)`
		args = append(args, focus)
	}
	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var programs []models.ProgramConstraint
	for rows.Next() {
		var (
			program          models.ProgramConstraint
			focusArea        sql.NullString
			minGrade         sql.NullInt64
			maxGrade         sql.NullInt64
			minAge           sql.NullInt64
			maxAge           sql.NullInt64
			minGPAU          sql.NullFloat64
			minGPAW          sql.NullFloat64
			citizenship      sql.NullString
			requiredCourses  pq.StringArray
			eligibilityNotes sql.NullString
			startDate        sql.NullTime
			deadline         sql.NullTime
		)
		err := rows.Scan(&program.ID, &program.Name, &focusArea, &program.Active,
			&minGrade, &maxGrade, &minAge, &maxAge, &minGPAU, &minGPAW,
			&citizenship, &requiredCourses, &eligibilityNotes, &startDate, &deadline)
		if err != nil {
			return nil, 0, 0, err
		}
		program.FocusArea = focusArea.String
		program.MinGrade = nullableInt(minGrade)
		program.MaxGrade = nullableInt(maxGrade)
		program.MinAge = nullableInt(minAge)
		program.MaxAge = nullableInt(maxAge)
		program.MinGPAUnweighted = nullableFloat(minGPAU)
		program.MinGPAWeighted = nullableFloat(minGPAW)
		program.CitizenshipRequirement = citizenship.String
		program.RequiredCourses = requiredCourses
		program.EligibilityNotes = eligibilityNotes.String
		if startDate.Valid {
			t := startDate.Time
			program.StartDate = &t
		}
		if deadline.Valid {
			t := deadline.Time
			program.ApplicationDeadline = &t
		}

		programs = append(programs, program)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return programs, len(programs), execTime, nil
}
