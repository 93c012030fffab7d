package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flowmind/internal/config"
	"flowmind/internal/logging"
)

const syncLabel = "genai-sync"

// Client talks to a Jira-compatible REST API with basic auth.
type Client struct {
	cfg        config.Tracker
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient substitutes the underlying HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// NewClient builds a tracker client from configuration.
func NewClient(cfg config.Tracker, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &Client{
		cfg:        cfg,
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// UpsertRequest describes one issue to create or update.
type UpsertRequest struct {
	Label       string
	Summary     string
	Description Node
	IssueType   string
	ExistingKey string
}

type issueFields struct {
	Project     map[string]string `json:"project,omitempty"`
	Summary     string            `json:"summary"`
	IssueType   map[string]string `json:"issuetype"`
	Labels      []string          `json:"labels"`
	Description Node              `json:"description"`
}

type issuePayload struct {
	Fields issueFields `json:"fields"`
}

// UpsertIssue creates or updates one issue. The known key takes precedence;
// a label-scoped JQL search is the fallback lookup unless disabled; creation
// is the last resort. Returns the remote key and whether the issue was
// created.
func (c *Client) UpsertIssue(ctx context.Context, req UpsertRequest) (string, bool, error) {
	fields := issueFields{
		Summary:     req.Summary,
		IssueType:   map[string]string{"name": req.IssueType},
		Labels:      []string{req.Label, syncLabel},
		Description: req.Description,
	}
	update := issuePayload{Fields: fields}
	fields.Project = map[string]string{"key": c.cfg.ProjectKey}
	create := issuePayload{Fields: fields}

	if req.ExistingKey != "" {
		err := c.do(ctx, http.MethodPut, "/rest/api/3/issue/"+req.ExistingKey, update, nil)
		if err == nil {
			return req.ExistingKey, false, nil
		}
		c.logger.Warn("known issue key not updatable, falling back to search/create",
			logging.String("key", req.ExistingKey),
			logging.Error(err))
	}

	if found, err := c.searchByLabel(ctx, req.Label); err == nil && found != "" {
		if err := c.do(ctx, http.MethodPut, "/rest/api/3/issue/"+found, update, nil); err != nil {
			return "", false, fmt.Errorf("update issue %s: %w", found, err)
		}
		return found, false, nil
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/issue", create, &created); err != nil {
		return "", false, fmt.Errorf("create issue %q: %w", req.Summary, err)
	}
	return created.Key, true, nil
}

// LinkIssues creates a "Relates" link between two issues.
func (c *Client) LinkIssues(ctx context.Context, inwardKey, outwardKey string) error {
	payload := map[string]any{
		"type":         map[string]string{"name": "Relates"},
		"inwardIssue":  map[string]string{"key": inwardKey},
		"outwardIssue": map[string]string{"key": outwardKey},
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/issueLink", payload, nil); err != nil {
		return fmt.Errorf("link %s to %s: %w", inwardKey, outwardKey, err)
	}
	return nil
}

// searchByLabel resolves an existing issue by its marker label. Search
// failures are non-fatal: restricted instances fall through to creation.
func (c *Client) searchByLabel(ctx context.Context, label string) (string, error) {
	if c.cfg.SkipSearch {
		return "", nil
	}
	payload := map[string]any{
		"jql":        fmt.Sprintf("project = %s AND labels = %q", c.cfg.ProjectKey, label),
		"maxResults": 2,
	}
	var result struct {
		Issues []struct {
			Key string `json:"key"`
		} `json:"issues"`
	}
	if err := c.do(ctx, http.MethodPost, "/rest/api/3/search", payload, &result); err != nil {
		c.logger.Info("label search unavailable, will create",
			logging.String("label", label),
			logging.Error(err))
		return "", nil
	}
	if len(result.Issues) == 0 {
		return "", nil
	}
	return result.Issues[0].Key, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.Email, c.cfg.APIToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: unexpected status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
