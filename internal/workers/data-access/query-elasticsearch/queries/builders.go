// internal/workers/data-access/query-elasticsearch/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// SchoolSearch defines the structure of a discovery search request.
type SchoolSearch struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	SchoolID   string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, search SchoolSearch) (*esapi.SearchRequest, error) {
	if search.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch search.QueryType {
	case "school_search":
		queryBody = buildSchoolSearchQuery(search)
	case "similar_schools":
		queryBody = buildSimilarSchoolsQuery(search)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, search.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{search.Index},
		Body:  strings.NewReader(string(body)),
		From:  &search.Pagination.From,
		Size:  &search.Pagination.Size,
	}

	return &req, nil
}

// buildSchoolSearchQuery builds the main school discovery query dynamically
func buildSchoolSearchQuery(search SchoolSearch) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if keywords, ok := search.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"name^3", "city^2", "state"},
				"type":   "best_fields",
			},
		})
	}

	if state, ok := search.Filters["state"].(string); ok && state != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"state": state},
		})
	}

	// Selectivity window, expressed as acceptance rate bounds.
	if rateRange, ok := search.Filters["acceptanceRange"].(map[string]interface{}); ok {
		bounds := map[string]interface{}{}
		if min, exists := toFloat(rateRange["min"]); exists {
			bounds["gte"] = min
		}
		if max, exists := toFloat(rateRange["max"]); exists {
			bounds["lte"] = max
		}
		if len(bounds) > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{"acceptance_rate": bounds},
			})
		}
	}

	// SAT window: a school overlaps when its published p25..p75 band touches
	// the requested range.
	if satRange, ok := search.Filters["satRange"].(map[string]interface{}); ok {
		if min, exists := toFloat(satRange["min"]); exists {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{"sat_75": map[string]interface{}{"gte": min}},
			})
		}
		if max, exists := toFloat(satRange["max"]); exists {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{"sat_25": map[string]interface{}{"lte": max}},
			})
		}
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	if sortBy, ok := search.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "acceptance_rate":
			query["sort"] = []map[string]interface{}{{"acceptance_rate": "asc"}}
		case "name":
			query["sort"] = []map[string]interface{}{{"name": "asc"}}
		}
	}

	return query
}

// buildSimilarSchoolsQuery builds a "schools like this one" query
func buildSimilarSchoolsQuery(search SchoolSearch) map[string]interface{} {
	if search.SchoolID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"name", "city", "state"},
				"like": []map[string]interface{}{
					{"_index": search.Index, "_id": search.SchoolID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

func toFloat(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
