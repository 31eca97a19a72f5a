// Package client calls a running diabrisk HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/diabrisk/internal/app"
	"github.com/okian/diabrisk/internal/domain/model"
	"github.com/okian/diabrisk/internal/domain/schema"
)

const (
	defaultTimeout  = 10 * time.Second
	maxErrorBodyLen = 4 << 10
)

// Client wraps http.Client with the API's routes and error mapping.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// New creates a client for the server at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	return c
}

// Predict posts raw to /predict. A 422 answer is returned as a
// *schema.ValidationError so callers handle remote and local scoring alike.
func (c *Client) Predict(ctx context.Context, raw schema.RawFields) (model.Prediction, error) {
	var p model.Prediction
	body, err := json.Marshal(raw)
	if err != nil {
		return p, fmt.Errorf("failed to marshal request body: %w", err)
	}
	if err := c.do(ctx, http.MethodPost, "/predict", body, &p); err != nil {
		return model.Prediction{}, err
	}
	return p, nil
}

// Score implements scoring.Scorer over the remote API.
func (c *Client) Score(ctx context.Context, raw schema.RawFields) (model.Prediction, error) {
	return c.Predict(ctx, raw)
}

// Model fetches the description of the loaded pair.
func (c *Client) Model(ctx context.Context) (app.ModelInfo, error) {
	var info app.ModelInfo
	err := c.do(ctx, http.MethodGet, "/model", nil, &info)
	return info, err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

type errorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err != nil {
		eb.Message = strings.TrimSpace(string(data))
	}
	if resp.StatusCode == http.StatusUnprocessableEntity && eb.Code == "validation_error" {
		return &schema.ValidationError{Field: eb.Field, Reason: eb.Message}
	}
	return &StatusError{StatusCode: resp.StatusCode, Code: eb.Code, Message: eb.Message}
}
