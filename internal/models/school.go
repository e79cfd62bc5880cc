// internal/models/school.go
package models

// SchoolStatistics is a read-only projection of a school's published
// admission statistics. Percentile ranges and averages are nullable because
// reference data is frequently incomplete; a missing figure disables the
// corresponding metric instead of failing the match.
type SchoolStatistics struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`

	SAT25 *int `json:"sat25,omitempty"`
	SAT75 *int `json:"sat75,omitempty"`
	ACT25 *int `json:"act25,omitempty"`
	ACT75 *int `json:"act75,omitempty"`

	AvgGPAUnweighted *float64 `json:"avgGpaUnweighted,omitempty"`
	AcceptanceRate   *float64 `json:"acceptanceRate,omitempty"` // fraction in (0,1]
}
