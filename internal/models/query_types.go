// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeStudentSnapshot  QueryType = "student_snapshot"
	QueryTypeSchoolStatistics QueryType = "school_statistics"
	QueryTypePrograms         QueryType = "program_constraints"
	QueryTypeSubscription     QueryType = "subscription"
)
