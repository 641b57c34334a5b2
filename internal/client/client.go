package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kelsos/artisan/internal/config"
	"github.com/kelsos/artisan/internal/logger"
	"github.com/kelsos/artisan/internal/models"
	"github.com/kelsos/artisan/internal/utils"
)

// APIClient handles all HTTP communication with the generation service
type APIClient struct {
	config     *config.Config
	httpClient *http.Client
}

// HTTPError is returned for any non-2xx response
type HTTPError struct {
	StatusCode int
	// Detail is the human-readable message taken from the response body
	Detail string
	Body   string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error %d: %s", e.StatusCode, e.Detail)
}

// HTTPStatus exposes the status code and detail to callers that only know the interface
func (e *HTTPError) HTTPStatus() (int, string) {
	return e.StatusCode, e.Detail
}

// ErrMissingTaskID is returned when a creation response carries no task identifier
var ErrMissingTaskID = errors.New("server response did not include a task identifier")

// NewAPIClient creates a new API client with the given configuration
func NewAPIClient(cfg *config.Config) *APIClient {
	return NewAPIClientWithHTTP(cfg, &http.Client{
		Timeout: cfg.RequestTimeout,
	})
}

// NewAPIClientWithHTTP lets callers supply the underlying http.Client
func NewAPIClientWithHTTP(cfg *config.Config, httpClient *http.Client) *APIClient {
	return &APIClient{
		config:     cfg,
		httpClient: httpClient,
	}
}

// BuildURL constructs a full URL for the given endpoint
func (c *APIClient) BuildURL(endpoint string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + endpoint
}

// ModelURL is where the finished artifact for taskID can be fetched
func (c *APIClient) ModelURL(taskID string) string {
	return c.BuildURL("/model/" + url.PathEscape(taskID))
}

// CreateTask submits a generation job and returns the task identifier
func (c *APIClient) CreateTask(ctx context.Context, payload map[string]string) (string, error) {
	var response models.CreateTaskResponse
	if err := c.request(ctx, http.MethodPost, "/generate", payload, &response); err != nil {
		return "", err
	}

	if strings.TrimSpace(response.TaskID) == "" {
		return "", ErrMissingTaskID
	}

	logger.Debug("Created generation task %s", response.TaskID)
	return response.TaskID, nil
}

// FetchStatus retrieves one status snapshot for a task
func (c *APIClient) FetchStatus(ctx context.Context, taskID string) (models.PollResult, error) {
	var result models.PollResult
	if err := c.request(ctx, http.MethodGet, "/status/"+url.PathEscape(taskID), nil, &result); err != nil {
		return models.PollResult{}, err
	}
	return result, nil
}

// OpenModel starts downloading the artifact for taskID. The caller must close
// the returned body. The filename comes from Content-Disposition when present.
func (c *APIClient) OpenModel(ctx context.Context, taskID string) (io.ReadCloser, string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/model/"+url.PathEscape(taskID), nil)
	if err != nil {
		return nil, "", err
	}

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, "", err
	}

	return resp.Body, attachmentName(resp.Header.Get("Content-Disposition"), taskID), nil
}

// request is the core JSON request method
func (c *APIClient) request(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	resp, err := c.do(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			logger.Error("%s: Error decoding response: %v", endpoint, err)
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

func (c *APIClient) do(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	url := c.BuildURL(endpoint)
	start := time.Now()
	logger.Debug("Starting %s request to %s", method, url)

	var requestBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("error marshaling request body: %w", err)
		}
		requestBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, requestBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		if ctx.Err() == nil {
			logger.Error("Request to %s failed after %v: %v", url, elapsed, err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}

	elapsed := time.Since(start)
	logger.Debug("Request to %s completed in %v with status %d", url, elapsed, resp.StatusCode)

	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	bodyBytes, _ := io.ReadAll(resp.Body)
	logger.Error("%s: HTTP error %d: %s", resp.Request.URL, resp.StatusCode, string(bodyBytes))
	return &HTTPError{
		StatusCode: resp.StatusCode,
		Detail:     errorDetail(resp.StatusCode, bodyBytes),
		Body:       string(bodyBytes),
	}
}

type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

// errorDetail extracts a message from an error body. FastAPI sends either a
// string or a list of {msg} objects for request validation failures.
func errorDetail(statusCode int, body []byte) string {
	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return models.DefaultErrorDetail
	}

	var text string
	if err := json.Unmarshal(parsed.Detail, &text); err == nil && text != "" {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(parsed.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if item.Msg != "" {
				msgs = append(msgs, item.Msg)
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return fmt.Sprintf("Server error: %d", statusCode)
}

func attachmentName(disposition, taskID string) string {
	fallback := "model.glb"
	if stem := utils.BaseName(taskID); stem != "" {
		fallback = stem + ".glb"
	}
	if disposition == "" {
		return fallback
	}

	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return fallback
	}

	if name := utils.BaseName(params["filename"]); name != "" {
		return name
	}
	return fallback
}
