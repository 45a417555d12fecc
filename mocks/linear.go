package mocks

import (
	"context"
	"sync/atomic"

	"linear-board-sync/models"
)

// MockLinearService is a mock implementation of the LinearService interface.
// Call counters are safe for concurrent use.
type MockLinearService struct {
	ListWorkflowStatesFunc func(ctx context.Context) ([]models.WorkflowState, error)
	UpdateIssueStateFunc   func(ctx context.Context, issueID, stateID string) (*models.MoveResult, error)
	FindCustomViewsFunc    func(ctx context.Context, name string) ([]models.CustomView, error)
	FetchViewIssuesFunc    func(ctx context.Context, viewID string, first int) ([]models.Issue, error)

	ListWorkflowStatesCalls atomic.Int32
	UpdateIssueStateCalls   atomic.Int32
	FindCustomViewsCalls    atomic.Int32
	FetchViewIssuesCalls    atomic.Int32
}

// ListWorkflowStates is the mock implementation of LinearService's ListWorkflowStates method
func (m *MockLinearService) ListWorkflowStates(ctx context.Context) ([]models.WorkflowState, error) {
	m.ListWorkflowStatesCalls.Add(1)
	if m.ListWorkflowStatesFunc != nil {
		return m.ListWorkflowStatesFunc(ctx)
	}
	return nil, nil
}

// UpdateIssueState is the mock implementation of LinearService's UpdateIssueState method.
// By default it reports success and echoes the issue and state ids.
func (m *MockLinearService) UpdateIssueState(ctx context.Context, issueID, stateID string) (*models.MoveResult, error) {
	m.UpdateIssueStateCalls.Add(1)
	if m.UpdateIssueStateFunc != nil {
		return m.UpdateIssueStateFunc(ctx, issueID, stateID)
	}
	return &models.MoveResult{
		Success: true,
		Issue: models.IssueProjection{
			ID:    issueID,
			State: models.IssueState{ID: stateID},
		},
	}, nil
}

// FindCustomViews is the mock implementation of LinearService's FindCustomViews method
func (m *MockLinearService) FindCustomViews(ctx context.Context, name string) ([]models.CustomView, error) {
	m.FindCustomViewsCalls.Add(1)
	if m.FindCustomViewsFunc != nil {
		return m.FindCustomViewsFunc(ctx, name)
	}
	return nil, nil
}

// FetchViewIssues is the mock implementation of LinearService's FetchViewIssues method
func (m *MockLinearService) FetchViewIssues(ctx context.Context, viewID string, first int) ([]models.Issue, error) {
	m.FetchViewIssuesCalls.Add(1)
	if m.FetchViewIssuesFunc != nil {
		return m.FetchViewIssuesFunc(ctx, viewID, first)
	}
	return nil, nil
}

// MockStateResolver is a mock implementation of the StateResolver interface
type MockStateResolver struct {
	ResolveFunc    func(ctx context.Context, name string) (string, error)
	InvalidateFunc func()

	ResolveCalls    atomic.Int32
	InvalidateCalls atomic.Int32
}

// Resolve is the mock implementation of StateResolver's Resolve method
func (m *MockStateResolver) Resolve(ctx context.Context, name string) (string, error) {
	m.ResolveCalls.Add(1)
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, name)
	}
	return "", nil
}

// Invalidate is the mock implementation of StateResolver's Invalidate method
func (m *MockStateResolver) Invalidate() {
	m.InvalidateCalls.Add(1)
	if m.InvalidateFunc != nil {
		m.InvalidateFunc()
	}
}

// MockMutationForwarder is a mock implementation of the MutationForwarder interface
type MockMutationForwarder struct {
	MoveFunc func(ctx context.Context, request models.MoveRequest) (*models.MoveResult, error)

	MoveCalls atomic.Int32
}

// Move is the mock implementation of MutationForwarder's Move method
func (m *MockMutationForwarder) Move(ctx context.Context, request models.MoveRequest) (*models.MoveResult, error) {
	m.MoveCalls.Add(1)
	if m.MoveFunc != nil {
		return m.MoveFunc(ctx, request)
	}
	return nil, nil
}
