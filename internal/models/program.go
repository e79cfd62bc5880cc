// internal/models/program.go
package models

import "time"

// ProgramConstraint is a read-only projection of a summer program's
// structural requirements. Unset bounds mean "no restriction"; free-text
// eligibility notes encode conditions that cannot be represented
// structurally and always force a manual check.
type ProgramConstraint struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FocusArea string `json:"focusArea,omitempty"`
	Active    bool   `json:"active"`

	MinGrade *int `json:"minGrade,omitempty"` // numeric grade level, 9-12
	MaxGrade *int `json:"maxGrade,omitempty"`
	MinAge   *int `json:"minAge,omitempty"`
	MaxAge   *int `json:"maxAge,omitempty"`

	MinGPAUnweighted *float64 `json:"minGpaUnweighted,omitempty"`
	MinGPAWeighted   *float64 `json:"minGpaWeighted,omitempty"`

	// Citizenship restriction, e.g. "us_citizen". Empty means unrestricted.
	CitizenshipRequirement string `json:"citizenshipRequirement,omitempty"`

	RequiredCourses  []string `json:"requiredCourses,omitempty"`
	EligibilityNotes string   `json:"eligibilityNotes,omitempty"`

	StartDate           *time.Time `json:"startDate,omitempty"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty"`
}
