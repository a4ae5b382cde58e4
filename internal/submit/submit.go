// Package submit delivers recorded questionnaire answers to the downstream
// collection endpoint over HTTP.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bloomcare/checkin/internal/models"
)

// DefaultTimeout bounds a single submission request.
const DefaultTimeout = 10 * time.Second

// payload is the wire shape the collection endpoint accepts for one answer.
type payload struct {
	UserID     string    `json:"userId"`
	DomainID   string    `json:"domainId"`
	QuestionID string    `json:"questionId"`
	Response   string    `json:"response"`
	Flag       string    `json:"flag,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client posts answers one at a time to a fixed endpoint URL.
type Client struct {
	endpoint string
	http     *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a submission client for the given endpoint URL.
func NewClient(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SubmitResponse posts one recorded answer. A non-2xx status is returned as
// an error with the response body included for diagnosis.
func (c *Client) SubmitResponse(ctx context.Context, userID string, resp models.QuestionnaireResponse) error {
	body, err := json.Marshal(payload{
		UserID:     userID,
		DomainID:   resp.DomainID,
		QuestionID: resp.QuestionID,
		Response:   resp.Response,
		Flag:       resp.Flag,
		Timestamp:  resp.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build submission request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("submission request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		slog.Error("Client.SubmitResponse: endpoint rejected submission",
			"status", res.StatusCode, "body", string(respBody),
			"userID", userID, "questionID", resp.QuestionID)
		return fmt.Errorf("submission rejected with status %d", res.StatusCode)
	}

	slog.Debug("Client.SubmitResponse: submitted",
		"userID", userID, "domainID", resp.DomainID, "questionID", resp.QuestionID)
	return nil
}
