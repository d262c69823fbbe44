// Package submit is the adapter to the scoring backend's submission
// endpoint. A failed submission never destroys local session state — the
// caller retains its snapshot and may retry with an identical payload.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/fluentia/exam-engine/internal/model"
	"github.com/rs/zerolog"
)

// StatusError reports a non-2xx response from the scoring backend.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("submission rejected: status %d", e.Code)
}

// Client posts final submissions.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger
}

// NewClient creates a submission client against baseURL.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.With().Str("component", "submit_client").Logger(),
	}
}

// Submit posts the attempt and returns the server-assigned result id.
func (c *Client) Submit(ctx context.Context, req *model.SubmissionRequest) (*model.SubmissionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode submission: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/exam/submit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var result model.SubmissionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode submission response: %w", err)
	}
	if result.ResultID == "" {
		return nil, fmt.Errorf("submission response missing result_id")
	}

	c.log.Info().
		Str("exam_id", req.ExamID).
		Str("result_id", result.ResultID).
		Int("answers", len(req.UserAnswers)).
		Msg("Submission accepted")
	return &result, nil
}
