// internal/models/student.go
package models

import "time"

// CourseStatus tracks where a course sits on the student's transcript.
type CourseStatus string

const (
	CourseStatusCompleted  CourseStatus = "completed"
	CourseStatusInProgress CourseStatus = "in_progress"
	CourseStatusPlanned    CourseStatus = "planned"
)

// CourseRecord is a single transcript entry.
type CourseRecord struct {
	Name   string       `json:"name"`
	Level  string       `json:"level,omitempty"` // e.g. "AP", "Honors", "IB"
	Status CourseStatus `json:"status"`
}

// StudentSnapshot is a read-only projection of a student profile used as
// scorer input. It is built fresh per job from persisted profile data and is
// never mutated. Optional academic data is modeled with pointers so "missing"
// is distinguishable from zero; missing data flows through the scorers as an
// `unknown` classification, never as an error.
type StudentSnapshot struct {
	ProfileID       string     `json:"profileId"`
	BirthDate       *time.Time `json:"birthDate,omitempty"`
	ResidencyStatus string     `json:"residencyStatus,omitempty"` // e.g. "us_citizen", "permanent_resident", "international"
	GradeLevel      string     `json:"gradeLevel,omitempty"`      // free text: "10th", "junior", ...
	GraduationYear  int        `json:"graduationYear,omitempty"`

	GPAUnweighted    *float64 `json:"gpaUnweighted,omitempty"`
	GPAWeighted      *float64 `json:"gpaWeighted,omitempty"`
	BestSATTotal     *int     `json:"bestSatTotal,omitempty"`
	BestACTComposite *int     `json:"bestActComposite,omitempty"`

	Courses []CourseRecord `json:"courses,omitempty"`

	// Already-saved candidates, excluded from every ranked result.
	ExistingSchoolIDs        []string `json:"existingSchoolIds,omitempty"`
	ExistingSummerProgramIDs []string `json:"existingSummerProgramIds,omitempty"`
}

// HasSchool reports whether the school is already on the student's list.
func (s *StudentSnapshot) HasSchool(schoolID string) bool {
	for _, id := range s.ExistingSchoolIDs {
		if id == schoolID {
			return true
		}
	}
	return false
}

// HasProgram reports whether the program is already on the student's list.
func (s *StudentSnapshot) HasProgram(programID string) bool {
	for _, id := range s.ExistingSummerProgramIDs {
		if id == programID {
			return true
		}
	}
	return false
}
