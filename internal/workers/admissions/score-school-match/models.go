// internal/workers/admissions/score-school-match/models.go
package scoreschoolmatch

import "admissions-workers/internal/models"

type Input struct {
	Student *models.StudentSnapshot  `json:"studentSnapshot"`
	School  *models.SchoolStatistics `json:"schoolStatistics"`
}

type Output struct {
	Match models.MatchResult `json:"matchResult"`
}
