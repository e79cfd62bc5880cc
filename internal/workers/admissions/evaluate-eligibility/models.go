// internal/workers/admissions/evaluate-eligibility/models.go
package evaluateeligibility

import "admissions-workers/internal/models"

type Input struct {
	Student *models.StudentSnapshot   `json:"studentSnapshot"`
	Program *models.ProgramConstraint `json:"programConstraint"`
}

type Output struct {
	Verdict models.EligibilityVerdict `json:"eligibilityVerdict"`
	Summary string                    `json:"eligibilitySummary"`
}
