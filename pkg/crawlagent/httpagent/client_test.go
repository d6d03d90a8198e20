package httpagent_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"sitescope/pkg/crawlagent"
	"sitescope/pkg/crawlagent/httpagent"
	"sitescope/pkg/domain"
	"sitescope/pkg/serrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// rtFunc allows using a function as an http.RoundTripper.
type rtFunc func(*http.Request) (*http.Response, error)

func (f rtFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func newTestClient(fn rtFunc) *httpagent.Client {
	return httpagent.New(&http.Client{Transport: fn}, "http://agent.local/", "test-token")
}

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func Test_RequestCrawl_success(t *testing.T) {
	crawlID := domain.CrawlID(uuid.New())

	client := newTestClient(func(r *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "http://agent.local/crawls", r.URL.String())
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(b), uuid.UUID(crawlID).String())
		require.Contains(t, string(b), `"maxPages":100`)

		return respond(http.StatusAccepted, `{"runId":"run-1"}`), nil
	})

	res, err := client.RequestCrawl(context.Background(), crawlagent.CrawlRequest{
		CrawlID:   crawlID,
		ProjectID: domain.ProjectID(uuid.New()),
		Domain:    "example.com",
		MaxPages:  100,
	})
	require.NoError(t, err)
	require.Equal(t, "run-1", res.AgentRunID)
}

func Test_RequestCrawl_rateLimited(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusTooManyRequests, "slow down"), nil
	})

	_, err := client.RequestCrawl(context.Background(), crawlagent.CrawlRequest{
		CrawlID: domain.CrawlID(uuid.New()),
		Domain:  "example.com",
	})
	require.ErrorIs(t, err, serrors.ErrRateLimited)
}

func Test_RequestCrawl_serverError(t *testing.T) {
	client := newTestClient(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusInternalServerError, "agent broke"), nil
	})

	_, err := client.RequestCrawl(context.Background(), crawlagent.CrawlRequest{
		CrawlID: domain.CrawlID(uuid.New()),
		Domain:  "example.com",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "agent broke")
}

func Test_CancelCrawl(t *testing.T) {
	crawlID := domain.CrawlID(uuid.New())

	t.Run("success", func(t *testing.T) {
		client := newTestClient(func(r *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodDelete, r.Method)
			require.Equal(t, "http://agent.local/crawls/"+uuid.UUID(crawlID).String(), r.URL.String())

			return respond(http.StatusNoContent, ""), nil
		})
		require.NoError(t, client.CancelCrawl(context.Background(), crawlID))
	})

	t.Run("unknown run", func(t *testing.T) {
		client := newTestClient(func(*http.Request) (*http.Response, error) {
			return respond(http.StatusNotFound, "no such run"), nil
		})
		err := client.CancelCrawl(context.Background(), crawlID)
		require.ErrorIs(t, err, serrors.ErrNotFound)
	})
}
