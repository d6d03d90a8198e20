// Package httpagent provides a crawlagent.Agent implementation backed by the
// crawl agent's REST API.
package httpagent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"sitescope/pkg/crawlagent"
	"sitescope/pkg/domain"
	"sitescope/pkg/serrors"

	"github.com/google/uuid"
)

// Client talks to the crawl agent's REST API and fulfills the
// crawlagent.Agent interface. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client // httpClient performs HTTP requests to the agent
	baseURL    string       // baseURL is the agent's API root, without trailing slash
	token      string       // token authenticates this service to the agent
}

// RequestCrawl submits the crawl to the agent. The agent responds with its
// own run identifier; 429 maps to ErrRateLimited so callers can snooze and
// retry.
func (c *Client) RequestCrawl(ctx context.Context, req crawlagent.CrawlRequest) (crawlagent.AcceptRes, error) {
	type crawlReq struct {
		CrawlID   string `json:"crawlId"`
		ProjectID string `json:"projectId"`
		Domain    string `json:"domain"`
		MaxPages  int    `json:"maxPages"`
	}
	bodyBytes, err := json.Marshal(crawlReq{
		CrawlID:   uuid.UUID(req.CrawlID).String(),
		ProjectID: uuid.UUID(req.ProjectID).String(),
		Domain:    req.Domain,
		MaxPages:  req.MaxPages,
	})
	if err != nil {
		return crawlagent.AcceptRes{}, fmt.Errorf("could not marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx,
		http.MethodPost,
		c.baseURL+"/crawls",
		strings.NewReader(string(bodyBytes)))
	if err != nil {
		return crawlagent.AcceptRes{}, fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return crawlagent.AcceptRes{}, fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return crawlagent.AcceptRes{}, fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return crawlagent.AcceptRes{},
			serrors.With(serrors.ErrRateLimited, "agent at capacity: %s", strings.TrimSpace(string(b)))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return crawlagent.AcceptRes{}, fmt.Errorf("crawl request failed: %s", strings.TrimSpace(string(b)))
	}

	var acceptResp struct {
		RunID string `json:"runId"`
	}
	if err := json.Unmarshal(b, &acceptResp); err != nil {
		return crawlagent.AcceptRes{}, fmt.Errorf("could not decode response: %w", err)
	}

	return crawlagent.AcceptRes{AgentRunID: acceptResp.RunID}, nil
}

// CancelCrawl tells the agent to stop the run for the given crawl.
func (c *Client) CancelCrawl(ctx context.Context, crawlID domain.CrawlID) error {
	httpReq, err := http.NewRequestWithContext(ctx,
		http.MethodDelete,
		c.baseURL+"/crawls/"+uuid.UUID(crawlID).String(),
		nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return serrors.With(serrors.ErrNotFound, "run not found")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("cancel failed: %s", strings.TrimSpace(string(b)))
	}

	return nil
}

// Ensure Client conforms to the crawlagent.Agent interface at compile time.
var _ crawlagent.Agent = (*Client)(nil)

// New constructs a Client that uses the provided http.Client, base URL and
// token to talk to the crawl agent.
func New(httpClient *http.Client, baseURL, token string) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
	}
}
