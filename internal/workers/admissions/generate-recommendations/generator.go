// internal/workers/admissions/generate-recommendations/generator.go
package generaterecommendations

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xeipuuv/gojsonschema"

	httpclient "admissions-workers/internal/common/http"
)

var (
	ErrLLMTimeout          = errors.New("LLM_TIMEOUT")
	ErrLLMGenerationFailed = errors.New("LLM_GENERATION_FAILED")
	ErrNarrativeRejected   = errors.New("NARRATIVE_SCHEMA_REJECTED")
)

// NarrativeGenerator produces per-candidate narrative reasoning. The
// deterministic slate never depends on it; a failed generation degrades the
// bundle to ranked-only entries.
type NarrativeGenerator interface {
	Generate(ctx context.Context, req *NarrativeRequest) (*NarrativePayload, error)
}

// narrativeSchema rejects malformed generator output before any of it
// reaches a stored bundle.
const narrativeSchema = `{
	"type": "object",
	"required": ["narratives"],
	"properties": {
		"narratives": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "narrative"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"narrative": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

// GenAIGenerator calls the GenAI HTTP service and schema-validates its
// response.
type GenAIGenerator struct {
	baseURL    string
	apiKey     string
	maxRetries int
	client     *httpclient.Client
}

func NewGenAIGenerator(baseURL, apiKey string, maxRetries int) *GenAIGenerator {
	return &GenAIGenerator{
		baseURL:    baseURL,
		apiKey:     apiKey,
		maxRetries: maxRetries,
		// No client timeout, the request context bounds the call
		client: httpclient.NewClient(0),
	}
}

func (g *GenAIGenerator) Generate(ctx context.Context, req *NarrativeRequest) (*NarrativePayload, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLLMGenerationFailed, err)
	}

	var respBody []byte
	var lastErr error

	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrLLMTimeout
			}
		}

		respBody, lastErr = g.post(ctx, body)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ErrLLMTimeout
		}
	}

	if lastErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrLLMTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrLLMGenerationFailed, lastErr)
	}

	return validateNarrativePayload(respBody)
}

func (g *GenAIGenerator) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/ai/recommendations", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// validateNarrativePayload runs the generator's raw JSON through the schema
// and only then unmarshals it.
func validateNarrativePayload(raw []byte) (*NarrativePayload, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(narrativeSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNarrativeRejected, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrNarrativeRejected, result.Errors())
	}

	var payload NarrativePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNarrativeRejected, err)
	}
	return &payload, nil
}
