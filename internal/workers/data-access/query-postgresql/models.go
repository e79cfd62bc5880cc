// internal/workers/data-access/query-postgresql/models.go
package querypostgresql

import "admissions-workers/internal/models"

type Input struct {
	QueryType string                 `json:"queryType"`
	ProfileID string                 `json:"profileId,omitempty"`
	UserID    string                 `json:"userId,omitempty"`
	Filters   map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeStudentSnapshot  = models.QueryTypeStudentSnapshot
	QueryTypeSchoolStatistics = models.QueryTypeSchoolStatistics
	QueryTypePrograms         = models.QueryTypePrograms
	QueryTypeSubscription     = models.QueryTypeSubscription
)
