// internal/models/recommendation.go
package models

import "time"

// EligibilityVerdict is the categorical outcome of checking a student
// against a program's structural requirements.
type EligibilityVerdict string

const (
	VerdictEligible      EligibilityVerdict = "eligible"
	VerdictCheckRequired EligibilityVerdict = "check_required"
	VerdictUnknown       EligibilityVerdict = "unknown"
	VerdictIneligible    EligibilityVerdict = "ineligible"
)

// restrictiveness orders verdicts so that any hard failure dominates:
// ineligible > check_required > unknown > eligible.
var restrictiveness = map[EligibilityVerdict]int{
	VerdictEligible:      0,
	VerdictUnknown:       1,
	VerdictCheckRequired: 2,
	VerdictIneligible:    3,
}

// MoreRestrictive returns the stricter of two verdicts.
func MoreRestrictive(a, b EligibilityVerdict) EligibilityVerdict {
	if restrictiveness[b] > restrictiveness[a] {
		return b
	}
	return a
}

// RankPriority orders verdicts for recommendation ranking, best first:
// eligible < check_required < unknown. Ineligible candidates are excluded
// before ranking, so their priority only matters as a guard value.
func (v EligibilityVerdict) RankPriority() int {
	switch v {
	case VerdictEligible:
		return 0
	case VerdictCheckRequired:
		return 1
	case VerdictUnknown:
		return 2
	default:
		return 3
	}
}

// Tier classifies a school relative to the student's competitiveness.
// Note the mapping is inverted relative to common usage: a high fit score
// yields "safety". This matches observed product behavior and is pinned by
// tests; changing it is a product decision, not a bug fix.
type Tier string

const (
	TierReach  Tier = "reach"
	TierTarget Tier = "target"
	TierSafety Tier = "safety"
)

// MetricMatch classifies a single statistic comparison.
type MetricMatch string

const (
	MatchBelow   MetricMatch = "below"
	MatchWithin  MetricMatch = "within"
	MatchAbove   MetricMatch = "above"
	MatchUnknown MetricMatch = "unknown"
)

// MatchResult is the deterministic outcome of scoring one student against
// one school.
type MatchResult struct {
	Tier       Tier        `json:"tier"`
	SATMatch   MetricMatch `json:"satMatch"`
	ACTMatch   MetricMatch `json:"actMatch"`
	GPAMatch   MetricMatch `json:"gpaMatch"`
	OverallFit int         `json:"overallFit"` // 0-100
}

// RankedSchool is one entry of the school recommendation slate.
type RankedSchool struct {
	School    SchoolStatistics `json:"school"`
	Match     MatchResult      `json:"match"`
	Narrative string           `json:"narrative,omitempty"` // LLM annotation, optional
}

// RankedProgram is one entry of the program recommendation slate.
type RankedProgram struct {
	Program   ProgramConstraint  `json:"program"`
	Verdict   EligibilityVerdict `json:"verdict"`
	Summary   string             `json:"summary"`
	Narrative string             `json:"narrative,omitempty"`
}

// RecommendationBundle is the cached unit: the last computed slates for one
// profile. It is always reconstructible from source data; dropping it only
// costs a recompute.
type RecommendationBundle struct {
	BundleID    string          `json:"bundleId"`
	ProfileID   string          `json:"profileId"`
	Schools     []RankedSchool  `json:"schools,omitempty"`
	Programs    []RankedProgram `json:"programs,omitempty"`
	GeneratedAt time.Time       `json:"generatedAt"`
}
