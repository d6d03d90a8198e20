package v1handler_test

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sitescope/internal/api/handler/v1handler"
	"sitescope/internal/clock"
	"sitescope/internal/crawl"
	"sitescope/internal/project"
	"sitescope/pkg/domain"
	"sitescope/pkg/storage/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var handlerTestNow = time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store  *memory.Store
	router http.Handler
	key    *rsa.PrivateKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	key, sec := testKeys(t)
	store := memory.New()
	clk := clock.Fixed{Instant: handlerTestNow}

	h := v1handler.New(v1handler.Deps{
		Projects: project.New(store, clk, project.Options{MaxAttempts: 3}),
		Crawls:   crawl.New(store, clk, crawl.Options{Timeout: time.Hour}),
	})

	return &testEnv{
		store:  store,
		router: h.Routes(sec),
		key:    key,
	}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	return rec
}

func decodeInto[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))

	return out
}

type projectBody struct {
	ID            string  `json:"id"`
	Domain        string  `json:"domain"`
	ActiveCrawlID *string `json:"activeCrawlId"`
}

type crawlBody struct {
	ID        string `json:"id"`
	ProjectID string `json:"projectId"`
	Tier      string `json:"tier"`
	Status    string `json:"status"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestHandler_Projects(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.NewString()
	token := signToken(t, env.key, userID, "starter", time.Hour)

	t.Run("create normalizes the domain", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects", token,
			map[string]string{"domain": "HTTPS://Example.COM/pricing"})
		require.Equal(t, http.StatusCreated, rec.Code)

		created := decodeInto[projectBody](t, rec)
		require.Equal(t, "example.com", created.Domain)
		require.NotEmpty(t, created.ID)
		require.Nil(t, created.ActiveCrawlID)
	})

	t.Run("create without auth", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects", "",
			map[string]string{"domain": "example.org"})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("create with an unusable domain", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects", token,
			map[string]string{"domain": "127.0.0.1"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("list returns the created project", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		list := decodeInto[struct {
			Projects []projectBody `json:"projects"`
		}](t, rec)
		require.Len(t, list.Projects, 1)
		require.Equal(t, "example.com", list.Projects[0].Domain)
	})

	t.Run("another user sees an empty list", func(t *testing.T) {
		otherToken := signToken(t, env.key, uuid.NewString(), "free", time.Hour)
		rec := env.do(t, http.MethodGet, "/projects", otherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		list := decodeInto[struct {
			Projects []projectBody `json:"projects"`
		}](t, rec)
		require.Empty(t, list.Projects)
	})

	t.Run("project limit returns 403 with quota code", func(t *testing.T) {
		// starter allows 3 projects; one already exists.
		for _, name := range []string{"two.example.com", "three.example.com"} {
			rec := env.do(t, http.MethodPost, "/projects", token,
				map[string]string{"domain": name})
			require.Equal(t, http.StatusCreated, rec.Code)
		}

		rec := env.do(t, http.MethodPost, "/projects", token,
			map[string]string{"domain": "four.example.com"})
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Equal(t, "QUOTA_EXCEEDED", decodeInto[errorBody](t, rec).Code)
	})

	t.Run("get rejects another user's project", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects", token, nil)
		list := decodeInto[struct {
			Projects []projectBody `json:"projects"`
		}](t, rec)
		require.NotEmpty(t, list.Projects)

		otherToken := signToken(t, env.key, uuid.NewString(), "pro", time.Hour)
		rec = env.do(t, http.MethodGet, "/projects/"+list.Projects[0].ID, otherToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("get unknown project", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/projects/"+uuid.NewString(), token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete then get", func(t *testing.T) {
		ownerToken := signToken(t, env.key, uuid.NewString(), "free", time.Hour)
		rec := env.do(t, http.MethodPost, "/projects", ownerToken,
			map[string]string{"domain": "gone.example.com"})
		require.Equal(t, http.StatusCreated, rec.Code)
		created := decodeInto[projectBody](t, rec)

		rec = env.do(t, http.MethodDelete, "/projects/"+created.ID, ownerToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodGet, "/projects/"+created.ID, ownerToken, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandler_Crawls(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	token := signToken(t, env.key, userID.String(), "starter", time.Hour)
	require.NoError(t, env.store.AddCrawlCredits(t.Context(), domain.UserID(userID), 5))

	createProject := func(t *testing.T, domainName string) projectBody {
		t.Helper()
		rec := env.do(t, http.MethodPost, "/projects", token,
			map[string]string{"domain": domainName})
		require.Equal(t, http.StatusCreated, rec.Code)

		return decodeInto[projectBody](t, rec)
	}

	proj := createProject(t, "crawl.example.com")

	t.Run("start crawl", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/crawls", token, nil)
		require.Equal(t, http.StatusAccepted, rec.Code)

		job := decodeInto[crawlBody](t, rec)
		require.Equal(t, proj.ID, job.ProjectID)
		require.Equal(t, "starter", job.Tier)
		require.Equal(t, "pending", job.Status)
		require.Len(t, env.store.InsertedJobs(), 1)
	})

	t.Run("second start conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/crawls", token, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "CONFLICT", decodeInto[errorBody](t, rec).Code)
	})

	t.Run("stranger cannot start a crawl", func(t *testing.T) {
		otherToken := signToken(t, env.key, uuid.NewString(), "pro", time.Hour)
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/crawls", otherToken, nil)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandler_Ingestion(t *testing.T) {
	env := newTestEnv(t)
	userID := uuid.New()
	token := signToken(t, env.key, userID.String(), "starter", time.Hour)
	require.NoError(t, env.store.AddCrawlCredits(t.Context(), domain.UserID(userID), 1))

	// Create a project, start its crawl, and move it to crawling the way the
	// worker would.
	rec := env.do(t, http.MethodPost, "/projects", token,
		map[string]string{"domain": "ingest.example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	proj := decodeInto[projectBody](t, rec)

	rec = env.do(t, http.MethodPost, "/projects/"+proj.ID+"/crawls", token, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	job := decodeInto[crawlBody](t, rec)

	crawls := crawl.New(env.store, clock.Fixed{Instant: handlerTestNow}, crawl.Options{Timeout: time.Hour})
	crawlUUID, err := uuid.Parse(job.ID)
	require.NoError(t, err)
	_, err = crawls.Begin(t.Context(), domain.CrawlID(crawlUUID))
	require.NoError(t, err)

	pagePath := fmt.Sprintf("/crawls/%s/pages", job.ID)

	t.Run("ingest a page", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, pagePath, testAgentToken, map[string]any{
			"url":            "https://ingest.example.com/",
			"overallScore":   92.0,
			"technicalScore": 88.0,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeInto[map[string]string](t, rec)
		require.NotEmpty(t, body["pageId"])
	})

	t.Run("customer token is rejected on ingestion routes", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, pagePath, token, map[string]any{
			"url": "https://ingest.example.com/about",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("score above 100 is rejected", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, pagePath, testAgentToken, map[string]any{
			"url":          "https://ingest.example.com/bad",
			"overallScore": 120.0,
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("fail requires a reason", func(t *testing.T) {
		rec := env.do(t, http.MethodPost,
			fmt.Sprintf("/crawls/%s/fail", job.ID), testAgentToken, map[string]any{})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("complete clears the active crawl", func(t *testing.T) {
		rec := env.do(t, http.MethodPost,
			fmt.Sprintf("/crawls/%s/complete", job.ID), testAgentToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = env.do(t, http.MethodGet, "/projects/"+proj.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Nil(t, decodeInto[projectBody](t, rec).ActiveCrawlID)
	})

	t.Run("completing twice conflicts", func(t *testing.T) {
		rec := env.do(t, http.MethodPost,
			fmt.Sprintf("/crawls/%s/complete", job.ID), testAgentToken, nil)
		require.Equal(t, http.StatusConflict, rec.Code)
	})
}

func TestHandler_Reports(t *testing.T) {
	env := newTestEnv(t)
	token := signToken(t, env.key, uuid.NewString(), "free", time.Hour)

	rec := env.do(t, http.MethodPost, "/projects", token,
		map[string]string{"domain": "report.example.com"})
	require.Equal(t, http.StatusCreated, rec.Code)
	proj := decodeInto[projectBody](t, rec)

	t.Run("summary report on an uncrawled project", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/reports", token,
			map[string]string{"type": "summary"})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("detailed report is above the free tier", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/reports", token,
			map[string]string{"type": "detailed"})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown report type", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/reports", token,
			map[string]string{"type": "weekly"})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("visibility checks consume the monthly budget", func(t *testing.T) {
		// free allows 3 checks per period.
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/visibility-checks", token,
			map[string]any{"queries": []string{"best crm", "crm pricing"}})
		require.Equal(t, http.StatusOK, rec.Code)

		run := decodeInto[struct {
			Remaining int `json:"remainingThisPeriod"`
		}](t, rec)
		require.Equal(t, 1, run.Remaining)

		rec = env.do(t, http.MethodPost, "/projects/"+proj.ID+"/visibility-checks", token,
			map[string]any{"queries": []string{"a", "b"}})
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("empty query batch", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/projects/"+proj.ID+"/visibility-checks", token,
			map[string]any{"queries": []string{}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
