package deepface

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the configuration for the DeepFace client
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	Detector   string
	RetryCount int
	// BaseBackoff is the wait before the first retry; it doubles per attempt
	BaseBackoff time.Duration
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaseURL:     "http://localhost:5005",
		Timeout:     30 * time.Second,
		Detector:    "opencv",
		RetryCount:  2,
		BaseBackoff: time.Second,
	}
}

// Client is the HTTP client for DeepFace API
type Client struct {
	httpClient *http.Client
	config     Config
}

// NewClient creates a new DeepFace client
func NewClient(config Config) *Client {
	if config.BaseBackoff <= 0 {
		config.BaseBackoff = time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Ping checks that the DeepFace service answers on its root endpoint
func (c *Client) Ping(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodGet, "/", nil, nil)
}

// Analyze calls POST /analyze for age, gender and emotion estimation
func (c *Client) Analyze(ctx context.Context, imageBase64 string) (*AnalyzeResponse, error) {
	req := AnalyzeRequest{
		Img:              "data:image/jpeg;base64," + imageBase64,
		Actions:          []string{"age", "gender", "emotion"},
		Detector:         c.config.Detector,
		EnforceDetection: false,
	}

	var resp AnalyzeResponse
	if err := c.doRequestWithRetry(ctx, http.MethodPost, "/analyze", req, &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

// maxBackoff is the maximum backoff duration for retries
const maxBackoff = 30 * time.Second

// calculateBackoff doubles base per attempt up to maxBackoff
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 1; i < attempt; i++ {
		backoff *= 2
		if backoff >= maxBackoff {
			return maxBackoff
		}
	}
	return backoff
}

// doRequestWithRetry executes HTTP request with retry logic
func (c *Client) doRequestWithRetry(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var lastErr error

	for attempt := 0; attempt <= c.config.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(calculateBackoff(c.config.BaseBackoff, attempt)):
			}
		}

		lastErr = c.doRequest(ctx, method, path, body, result)
		if lastErr == nil {
			return nil
		}

		// Don't retry on context errors
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Only server errors are retried
		if isClientError(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: %v", ErrDeepFaceUnavailable, lastErr)
}

// StatusError is a non-2xx answer from DeepFace
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.StatusCode, e.Body)
}

// isClientError checks if the error is a 4xx client error
func isClientError(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}

// isNoFaceError reports whether DeepFace rejected the image because it found no face
func isNoFaceError(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	return statusErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(strings.ToLower(statusErr.Body), "face could not be detected")
}

// doRequest executes a single HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	return nil
}
