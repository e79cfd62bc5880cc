// internal/workers/admissions/rank-program-recommendations/models.go
package rankprogramrecommendations

import "admissions-workers/internal/models"

type Input struct {
	Student  *models.StudentSnapshot    `json:"studentSnapshot"`
	Programs []models.ProgramConstraint `json:"candidatePrograms"`
	Focus    string                     `json:"focus,omitempty"` // optional focus-area filter
	Limit    int                        `json:"limit,omitempty"`
}

type Output struct {
	Programs []models.RankedProgram `json:"rankedPrograms"`
}
