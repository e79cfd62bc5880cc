// internal/workers/admissions/generate-recommendations/models.go
package generaterecommendations

import "admissions-workers/internal/models"

type Input struct {
	Student  *models.StudentSnapshot `json:"studentSnapshot"`
	Schools  []models.RankedSchool   `json:"rankedSchools,omitempty"`
	Programs []models.RankedProgram  `json:"rankedPrograms,omitempty"`
	Limit    int                     `json:"limit,omitempty"`

	// ForceRefresh bypasses the cache lookup but still stores the result.
	ForceRefresh bool `json:"forceRefresh,omitempty"`
}

type Output struct {
	Bundle    *models.RecommendationBundle `json:"recommendationBundle"`
	FromCache bool                         `json:"fromCache"`
}

// NarrativeRequest is the payload sent to the narrative generator: one entry
// per ranked candidate, stripped down to what the prompt needs.
type NarrativeRequest struct {
	ProfileID  string               `json:"profileId"`
	Candidates []NarrativeCandidate `json:"candidates"`
}

type NarrativeCandidate struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "school" or "program"
	Tier    string `json:"tier,omitempty"`
	Verdict string `json:"verdict,omitempty"`
	Fit     int    `json:"fit,omitempty"`
}

// NarrativePayload is the generator's structured answer, schema-validated
// before any of it is merged into the bundle.
type NarrativePayload struct {
	Narratives []NarrativeEntry `json:"narratives"`
}

type NarrativeEntry struct {
	ID        string `json:"id"`
	Narrative string `json:"narrative"`
}
