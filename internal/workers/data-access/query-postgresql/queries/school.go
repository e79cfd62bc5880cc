// internal/workers/data-access/query-postgresql/queries/school.go
package queries

import (
	"context"
	"database/sql"
	"time"

	"admissions-workers/internal/models"
)

const defaultSchoolLimit = 200

// SchoolStatistics loads the candidate pool for the school ranker. An
// optional "state" filter narrows the pool; "limit" caps it.
func SchoolStatistics(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	query := `
		SELECT id, name, city, state, sat_25, sat_75, act_25, act_75,
		       avg_gpa_unweighted, acceptance_rate
		FROM school_statistics`
	args := []interface{}{}

	filters, _ := params["filters"].(map[string]interface{})
	if state, ok := filters["state"].(string); ok && state != "" {
		query += ` WHERE state = $1`
		args = append(args, state)
	}
	query += ` ORDER BY name`

	limit := defaultSchoolLimit
	if l, ok := filters["limit"].(float64); ok && int(l) > 0 {
		limit = int(l)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var schools []models.SchoolStatistics
	for rows.Next() {
		var (
			school         models.SchoolStatistics
			city, state    sql.NullString
			sat25, sat75   sql.NullInt64
			act25, act75   sql.NullInt64
			avgGPA         sql.NullFloat64
			acceptanceRate sql.NullFloat64
		)
		err := rows.Scan(&school.ID, &school.Name, &city, &state,
			&sat25, &sat75, &act25, &act75, &avgGPA, &acceptanceRate)
		if err != nil {
			return nil, 0, 0, err
		}
		school.City = city.String
		school.State = state.String
		school.SAT25 = nullableInt(sat25)
		school.SAT75 = nullableInt(sat75)
		school.ACT25 = nullableInt(act25)
		school.ACT75 = nullableInt(act75)
		school.AvgGPAUnweighted = nullableFloat(avgGPA)
		school.AcceptanceRate = nullableFloat(acceptanceRate)

		schools = append(schools, school)
		if len(schools) >= limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return schools, len(schools), execTime, nil
}

func nullableInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
