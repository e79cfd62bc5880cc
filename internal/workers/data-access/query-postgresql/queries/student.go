// internal/workers/data-access/query-postgresql/queries/student.go
package queries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"admissions-workers/internal/models"

	"github.com/lib/pq"
)

// StudentSnapshot loads the read-only profile projection the scoring workers
// consume. Optional academic figures stay nil when the column is NULL so a
// missing value is distinguishable from zero downstream.
func StudentSnapshot(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	profileID, ok := stringParam(params, "profileId")
	if !ok {
		return nil, 0, 0, fmt.Errorf("%w: profileId", ErrMissingParam)
	}

	start := time.Now()

	var (
		snapshot   models.StudentSnapshot
		birthDate  sql.NullTime
		residency  sql.NullString
		gradeLevel sql.NullString
		gradYear   sql.NullInt64
		gpaU       sql.NullFloat64
		gpaW       sql.NullFloat64
		sat        sql.NullInt64
		act        sql.NullInt64
		schoolIDs  pq.StringArray
		programIDs pq.StringArray
	)

	err := db.QueryRowContext(ctx, `
		SELECT profile_id, birth_date, residency_status, grade_level, graduation_year,
		       gpa_unweighted, gpa_weighted, best_sat_total, best_act_composite,
		       existing_school_ids, existing_program_ids
		FROM student_profiles
		WHERE profile_id = $1`, profileID).Scan(
		&snapshot.ProfileID, &birthDate, &residency, &gradeLevel, &gradYear,
		&gpaU, &gpaW, &sat, &act,
		&schoolIDs, &programIDs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, 0, fmt.Errorf("%w: profile %s", ErrNotFound, profileID)
		}
		return nil, 0, 0, err
	}

	if birthDate.Valid {
		bd := birthDate.Time
		snapshot.BirthDate = &bd
	}
	snapshot.ResidencyStatus = residency.String
	snapshot.GradeLevel = gradeLevel.String
	snapshot.GraduationYear = int(gradYear.Int64)
	if gpaU.Valid {
		v := gpaU.Float64
		snapshot.GPAUnweighted = &v
	}
	if gpaW.Valid {
		v := gpaW.Float64
		snapshot.GPAWeighted = &v
	}
	if sat.Valid {
		v := int(sat.Int64)
		snapshot.BestSATTotal = &v
	}
	if act.Valid {
		v := int(act.Int64)
		snapshot.BestACTComposite = &v
	}
	snapshot.ExistingSchoolIDs = schoolIDs
	snapshot.ExistingSummerProgramIDs = programIDs

	courses, err := studentCourses(ctx, db, profileID)
	if err != nil {
		return nil, 0, 0, err
	}
	snapshot.Courses = courses

	execTime := time.Since(start).Milliseconds()
	return &snapshot, 1, execTime, nil
}

func studentCourses(ctx context.Context, db *sql.DB, profileID string) ([]models.CourseRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT name, level, status
		FROM student_courses
		WHERE profile_id = $1
		ORDER BY name`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courses []models.CourseRecord
	for rows.Next() {
		var course models.CourseRecord
		var level sql.NullString
		if err := rows.Scan(&course.Name, &level, &course.Status); err != nil {
			return nil, err
		}
		course.Level = level.String
		courses = append(courses, course)
	}
	return courses, rows.Err()
}
