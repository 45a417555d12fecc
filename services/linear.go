package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"linear-board-sync/models"
)

const (
	// Response body truncation for logging and errors
	maxBodyLogLength   = 500 // Max chars to log in debug
	maxBodyErrorLength = 200 // Max chars to include in error messages

	// workflowStatesPageSize is the largest page Linear serves
	workflowStatesPageSize = 250

	// customViewsLookupLimit caps how many same-named views are returned
	customViewsLookupLimit = 20
)

const workflowStatesQuery = `
query($first: Int!, $after: String) {
  workflowStates(first: $first, after: $after) {
    nodes {
      id
      name
    }
    pageInfo {
      hasNextPage
      endCursor
    }
  }
}`

const issueUpdateMutation = `
mutation($id: String!, $stateId: String!) {
  issueUpdate(id: $id, input: { stateId: $stateId }) {
    success
    issue {
      id
      state {
        id
        name
      }
    }
  }
}`

const customViewsQuery = `
query($name: String!, $first: Int!) {
  customViews(first: $first, filter: { name: { eq: $name } }) {
    nodes {
      id
      name
    }
  }
}`

const viewIssuesQuery = `
query($id: String!, $first: Int!) {
  customView(id: $id) {
    id
    name
    issues(first: $first) {
      nodes {
        id
        identifier
        title
        state {
          id
          name
        }
        updatedAt
        assignee {
          name
          avatarUrl
        }
        labels {
          nodes {
            name
            color
          }
        }
        url
      }
    }
  }
}`

// LinearService defines the interface for interacting with the Linear GraphQL API
type LinearService interface {
	// ListWorkflowStates enumerates every workflow state visible to the API key, in API order
	ListWorkflowStates(ctx context.Context) ([]models.WorkflowState, error)

	// UpdateIssueState moves an issue to the given workflow state
	UpdateIssueState(ctx context.Context, issueID, stateID string) (*models.MoveResult, error)

	// FindCustomViews returns the custom views with exactly the given name
	FindCustomViews(ctx context.Context, name string) ([]models.CustomView, error)

	// FetchViewIssues returns up to first issues of a custom view
	FetchViewIssues(ctx context.Context, viewID string, first int) ([]models.Issue, error)
}

// LinearServiceImpl implements the LinearService interface
type LinearServiceImpl struct {
	config *models.Config
	client *http.Client
	logger *zap.Logger
}

// NewLinearService creates a new LinearService with a timeout-bounded HTTP client
func NewLinearService(config *models.Config, logger *zap.Logger) LinearService {
	return NewLinearServiceWithClient(config, logger, &http.Client{
		Timeout: time.Duration(config.Linear.TimeoutSeconds) * time.Second,
	})
}

// NewLinearServiceWithClient creates a new LinearService using the given HTTP client
func NewLinearServiceWithClient(config *models.Config, logger *zap.Logger, client *http.Client) *LinearServiceImpl {
	return &LinearServiceImpl{
		config: config,
		client: client,
		logger: logger,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage       `json:"data"`
	Errors []models.GraphQLError `json:"errors"`
}

// truncateForLogging truncates response body for debug logging
func truncateForLogging(body []byte, maxLen int) string {
	bodyStr := string(body)
	if len(bodyStr) > maxLen {
		return bodyStr[:maxLen] + fmt.Sprintf("... (truncated, total: %d chars)", len(bodyStr))
	}
	return bodyStr
}

// truncateForError truncates response body for error messages
func truncateForError(body []byte) string {
	return truncateForLogging(body, maxBodyErrorLength)
}

// doGraphQL sends one GraphQL operation and decodes its data into out.
// There is a single attempt: any failure is returned to the caller as is.
func (s *LinearServiceImpl) doGraphQL(
	ctx context.Context,
	operation string,
	query string,
	variables map[string]interface{},
	out interface{},
) error {
	endpoint := s.config.Linear.Endpoint
	s.logger.Debug("Doing operation", zap.String("operation", operation), zap.String("url", endpoint))

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", operation, err)
	}

	req.Header.Set("Authorization", s.config.Linear.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return &DependencyUnavailableError{Operation: operation, Err: err}
	}

	body, readErr := io.ReadAll(resp.Body)
	if closeErr := resp.Body.Close(); closeErr != nil {
		s.logger.Error("Failed to close response body", zap.Error(closeErr), zap.String("operation", operation))
	}
	if readErr != nil {
		return &DependencyUnavailableError{Operation: operation, StatusCode: resp.StatusCode, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &DependencyUnavailableError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Body:       truncateForError(body),
		}
	}

	s.logger.Debug("Operation successful", zap.String("operation", operation), zap.Int("status_code", resp.StatusCode))
	s.logger.Debug("Response body", zap.String("body", truncateForLogging(body, maxBodyLogLength)))

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &DependencyUnavailableError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}

	if len(envelope.Errors) > 0 {
		return &DependencyRejectedError{Operation: operation, Errors: envelope.Errors}
	}

	if out == nil {
		return nil
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return &DependencyUnavailableError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        errors.New("response carries no data"),
		}
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return &DependencyUnavailableError{
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode data: %w", err),
		}
	}

	return nil
}

// ListWorkflowStates enumerates every workflow state, following pagination
func (s *LinearServiceImpl) ListWorkflowStates(ctx context.Context) ([]models.WorkflowState, error) {
	var states []models.WorkflowState
	var after interface{}

	for {
		var data struct {
			WorkflowStates struct {
				Nodes    []models.WorkflowState `json:"nodes"`
				PageInfo struct {
					HasNextPage bool   `json:"hasNextPage"`
					EndCursor   string `json:"endCursor"`
				} `json:"pageInfo"`
			} `json:"workflowStates"`
		}

		variables := map[string]interface{}{
			"first": workflowStatesPageSize,
			"after": after,
		}
		if err := s.doGraphQL(ctx, "workflowStates", workflowStatesQuery, variables, &data); err != nil {
			return nil, err
		}

		states = append(states, data.WorkflowStates.Nodes...)

		pageInfo := data.WorkflowStates.PageInfo
		if !pageInfo.HasNextPage || pageInfo.EndCursor == "" {
			break
		}
		after = pageInfo.EndCursor
	}

	s.logger.Debug("Listed workflow states", zap.Int("count", len(states)))
	return states, nil
}

// UpdateIssueState moves an issue to the given workflow state and returns the
// success flag and issue projection exactly as Linear reported them
func (s *LinearServiceImpl) UpdateIssueState(ctx context.Context, issueID, stateID string) (*models.MoveResult, error) {
	var data struct {
		IssueUpdate *struct {
			Success bool                    `json:"success"`
			Issue   *models.IssueProjection `json:"issue"`
		} `json:"issueUpdate"`
	}

	variables := map[string]interface{}{
		"id":      issueID,
		"stateId": stateID,
	}
	if err := s.doGraphQL(ctx, "issueUpdate", issueUpdateMutation, variables, &data); err != nil {
		return nil, err
	}

	if data.IssueUpdate == nil || data.IssueUpdate.Issue == nil {
		return nil, &DependencyUnavailableError{
			Operation:  "issueUpdate",
			StatusCode: http.StatusOK,
			Err:        errors.New("response missing issueUpdate.issue"),
		}
	}

	return &models.MoveResult{
		Success: data.IssueUpdate.Success,
		Issue:   *data.IssueUpdate.Issue,
	}, nil
}

// FindCustomViews returns the custom views whose name equals name
func (s *LinearServiceImpl) FindCustomViews(ctx context.Context, name string) ([]models.CustomView, error) {
	var data struct {
		CustomViews struct {
			Nodes []models.CustomView `json:"nodes"`
		} `json:"customViews"`
	}

	variables := map[string]interface{}{
		"name":  name,
		"first": customViewsLookupLimit,
	}
	if err := s.doGraphQL(ctx, "customViews", customViewsQuery, variables, &data); err != nil {
		return nil, err
	}

	return data.CustomViews.Nodes, nil
}

// FetchViewIssues returns up to first issues of the custom view with the given id
func (s *LinearServiceImpl) FetchViewIssues(ctx context.Context, viewID string, first int) ([]models.Issue, error) {
	var data struct {
		CustomView *struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Issues struct {
				Nodes []models.Issue `json:"nodes"`
			} `json:"issues"`
		} `json:"customView"`
	}

	variables := map[string]interface{}{
		"id":    viewID,
		"first": first,
	}
	if err := s.doGraphQL(ctx, "customView", viewIssuesQuery, variables, &data); err != nil {
		return nil, err
	}

	if data.CustomView == nil {
		return nil, fmt.Errorf("custom view %s not found", viewID)
	}

	return data.CustomView.Issues.Nodes, nil
}
