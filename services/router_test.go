package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"linear-board-sync/mocks"
	"linear-board-sync/models"
)

var routerTestStates = []models.WorkflowState{
	{ID: "state-backlog", Name: "Backlog"},
	{ID: "state-progress", Name: "Em Progresso"},
	{ID: "state-done-old", Name: "Concluído"},
	{ID: "state-done", Name: "Concluído"},
}

// newTestRouter wires a Router to real components over a mocked Linear service
func newTestRouter(apiKey string, ttl time.Duration) (*Router, *mocks.MockLinearService) {
	config := &models.Config{}
	config.Linear.APIKey = apiKey

	linearService := &mocks.MockLinearService{
		ListWorkflowStatesFunc: func(ctx context.Context) ([]models.WorkflowState, error) {
			return routerTestStates, nil
		},
		UpdateIssueStateFunc: func(ctx context.Context, issueID, stateID string) (*models.MoveResult, error) {
			name := ""
			for _, state := range routerTestStates {
				if state.ID == stateID {
					name = state.Name
				}
			}
			return &models.MoveResult{
				Success: true,
				Issue:   models.IssueProjection{ID: issueID, State: models.IssueState{ID: stateID, Name: name}},
			}, nil
		},
	}

	logger := zap.NewNop()
	cache := NewStatusCache(ttl)
	resolver := NewStateResolver(linearService, cache, logger)
	forwarder := NewMutationForwarder(linearService, resolver, logger)
	return NewRouter(config, forwarder, resolver, cache, logger), linearService
}

func doRequest(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func assertCORSHeaders(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type", rec.Header().Get("Access-Control-Allow-Headers"))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body jsonErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "body: %s", rec.Body.String())
	return body.Error
}

func TestRouter_Update(t *testing.T) {
	t.Run("valid move returns the updated issue", func(t *testing.T) {
		router, linearService := newTestRouter("lin_api_test", 0)

		rec := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-42","targetState":"Em Progresso"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assertCORSHeaders(t, rec)

		var result models.MoveResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Success)
		assert.Equal(t, "issue-42", result.Issue.ID)
		assert.Equal(t, "state-progress", result.Issue.State.ID)
		assert.Equal(t, "Em Progresso", result.Issue.State.Name)
		assert.Equal(t, int32(1), linearService.UpdateIssueStateCalls.Load())
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		bodies := []string{
			`{"targetState":"Backlog"}`,
			`{"issueId":"issue-1"}`,
			`{"issueId":"issue-1","targetStateId":"state-backlog"}`,
			`{"issueId":"","targetState":"Backlog","order":["issue-1"]}`,
			`{}`,
		}
		for _, body := range bodies {
			router, linearService := newTestRouter("lin_api_test", 0)

			rec := doRequest(router, http.MethodPost, "/update", body)

			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
			assert.Contains(t, decodeError(t, rec), "missing required field", body)
			assert.Equal(t, int32(0), linearService.UpdateIssueStateCalls.Load(), body)
			assert.Equal(t, int32(0), linearService.ListWorkflowStatesCalls.Load(), body)
		}
	})

	t.Run("target state id skips the state query", func(t *testing.T) {
		router, linearService := newTestRouter("lin_api_test", 0)

		rec := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Backlog","targetStateId":"state-progress"}`)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, int32(0), linearService.ListWorkflowStatesCalls.Load())
		assert.Equal(t, int32(1), linearService.UpdateIssueStateCalls.Load())
	})

	t.Run("unknown state name is not found", func(t *testing.T) {
		router, linearService := newTestRouter("lin_api_test", 0)

		rec := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Nonexistent"}`)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, decodeError(t, rec), "Nonexistent")
		assert.Equal(t, int32(0), linearService.UpdateIssueStateCalls.Load())
		assertCORSHeaders(t, rec)
	})

	t.Run("duplicate state names resolve to the last one", func(t *testing.T) {
		router, _ := newTestRouter("lin_api_test", 0)

		rec := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Concluído"}`)

		require.Equal(t, http.StatusOK, rec.Code)
		var result models.MoveResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "state-done", result.Issue.State.ID)
	})

	t.Run("order hint leaves the response unchanged", func(t *testing.T) {
		router, _ := newTestRouter("lin_api_test", 0)

		plain := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Backlog"}`)
		withStrings := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Backlog","order":["issue-2","issue-1"]}`)
		withObjects := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Backlog","order":[{"issueId":"issue-1","order":0}]}`)

		require.Equal(t, http.StatusOK, plain.Code)
		assert.Equal(t, http.StatusOK, withStrings.Code)
		assert.Equal(t, http.StatusOK, withObjects.Code)
		assert.JSONEq(t, plain.Body.String(), withStrings.Body.String())
		assert.JSONEq(t, plain.Body.String(), withObjects.Body.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		router, linearService := newTestRouter("lin_api_test", 0)

		rec := doRequest(router, http.MethodPost, "/update", `{"issueId":`)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decodeError(t, rec), "invalid request body")
		assert.Equal(t, int32(0), linearService.UpdateIssueStateCalls.Load())
	})

	t.Run("upstream failures are server errors", func(t *testing.T) {
		tests := []struct {
			name        string
			err         error
			wantMessage string
		}{
			{
				name:        "rejected",
				err:         &DependencyRejectedError{Operation: "issueUpdate", Errors: []models.GraphQLError{{Message: "Entity not found: Issue"}}},
				wantMessage: "Entity not found: Issue",
			},
			{
				name:        "unavailable",
				err:         &DependencyUnavailableError{Operation: "issueUpdate", StatusCode: http.StatusBadGateway, Body: "bad gateway"},
				wantMessage: "status_code=502",
			},
			{
				name:        "network",
				err:         &DependencyUnavailableError{Operation: "issueUpdate", Err: errors.New("connection reset")},
				wantMessage: "connection reset",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				router, linearService := newTestRouter("lin_api_test", 0)
				linearService.UpdateIssueStateFunc = func(ctx context.Context, issueID, stateID string) (*models.MoveResult, error) {
					return nil, tt.err
				}

				rec := doRequest(router, http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Backlog"}`)

				assert.Equal(t, http.StatusInternalServerError, rec.Code)
				assert.Contains(t, decodeError(t, rec), tt.wantMessage)
			})
		}
	})
}

func TestRouter_StatusCacheLifetime(t *testing.T) {
	body := `{"issueId":"issue-1","targetState":"Backlog"}`

	t.Run("per-request cache rebuilds for every update", func(t *testing.T) {
		router, linearService := newTestRouter("lin_api_test", 0)

		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/update", body).Code)
		}
		assert.Equal(t, int32(3), linearService.ListWorkflowStatesCalls.Load())
	})

	t.Run("ttl cache is shared across updates", func(t *testing.T) {
		router, linearService := newTestRouter("lin_api_test", time.Hour)

		for i := 0; i < 3; i++ {
			require.Equal(t, http.StatusOK, doRequest(router, http.MethodPost, "/update", body).Code)
		}
		assert.Equal(t, int32(1), linearService.ListWorkflowStatesCalls.Load())
	})
}

func TestRouter_MissingCredential(t *testing.T) {
	requests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/update", `{"issueId":"issue-1","targetState":"Backlog"}`},
		{http.MethodPost, "/update", `{}`},
		{http.MethodGet, "/update", ""},
		{http.MethodGet, "/", ""},
		{http.MethodDelete, "/health", ""},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			router, linearService := newTestRouter("", 0)

			rec := doRequest(router, r.method, r.path, r.body)

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, ErrConfiguration.Error(), decodeError(t, rec))
			assertCORSHeaders(t, rec)
			assert.Equal(t, int32(0), linearService.ListWorkflowStatesCalls.Load())
			assert.Equal(t, int32(0), linearService.UpdateIssueStateCalls.Load())
		})
	}
}

func TestRouter_Preflight(t *testing.T) {
	for _, apiKey := range []string{"lin_api_test", ""} {
		for _, path := range []string{"/update", "/health", "/anything/else"} {
			t.Run(path, func(t *testing.T) {
				router, linearService := newTestRouter(apiKey, 0)

				rec := doRequest(router, http.MethodOptions, path, "")

				assert.Equal(t, http.StatusNoContent, rec.Code)
				assert.Empty(t, rec.Body.String())
				assertCORSHeaders(t, rec)
				assert.Equal(t, int32(0), linearService.ListWorkflowStatesCalls.Load())
			})
		}
	}
}

func TestRouter_Health(t *testing.T) {
	for _, apiKey := range []string{"lin_api_test", ""} {
		router, linearService := newTestRouter(apiKey, 0)

		rec := doRequest(router, http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assertCORSHeaders(t, rec)
		assert.Equal(t, int32(0), linearService.ListWorkflowStatesCalls.Load())
	}
}

func TestRouter_NotFound(t *testing.T) {
	requests := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/"},
		{http.MethodGet, "/update"},
		{http.MethodPost, "/health"},
		{http.MethodPut, "/update"},
		{http.MethodPost, "/update/extra"},
	}

	for _, r := range requests {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			router, _ := newTestRouter("lin_api_test", 0)

			rec := doRequest(router, r.method, r.path, "")

			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, "Not Found", rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
			assertCORSHeaders(t, rec)
		})
	}
}

func TestRouter_RequestID(t *testing.T) {
	router, _ := newTestRouter("lin_api_test", 0)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = doRequest(router, http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
