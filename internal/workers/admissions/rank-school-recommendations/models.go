// internal/workers/admissions/rank-school-recommendations/models.go
package rankschoolrecommendations

import "admissions-workers/internal/models"

type Input struct {
	Student *models.StudentSnapshot   `json:"studentSnapshot"`
	Schools []models.SchoolStatistics `json:"candidateSchools"`
	Tier    string                    `json:"tier,omitempty"` // optional filter: reach|target|safety
	Limit   int                       `json:"limit,omitempty"`
}

type Output struct {
	Schools []models.RankedSchool `json:"rankedSchools"`
}
