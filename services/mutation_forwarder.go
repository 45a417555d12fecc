package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"linear-board-sync/models"
)

// MutationForwarder applies a requested status change to one Linear issue
type MutationForwarder interface {
	// Move validates the request, resolves the target state if needed and updates the issue
	Move(ctx context.Context, request models.MoveRequest) (*models.MoveResult, error)
}

// MutationForwarderImpl implements the MutationForwarder interface
type MutationForwarderImpl struct {
	linearService LinearService
	resolver      StateResolver
	logger        *zap.Logger
}

// NewMutationForwarder creates a new MutationForwarder
func NewMutationForwarder(linearService LinearService, resolver StateResolver, logger *zap.Logger) MutationForwarder {
	return &MutationForwarderImpl{
		linearService: linearService,
		resolver:      resolver,
		logger:        logger,
	}
}

// validateMoveRequest checks that the required fields are present and non-empty
func validateMoveRequest(request models.MoveRequest) error {
	if strings.TrimSpace(request.IssueID) == "" {
		return &ValidationError{Field: "issueId"}
	}
	if strings.TrimSpace(request.TargetState) == "" {
		return &ValidationError{Field: "targetState"}
	}
	return nil
}

// Move updates the issue's workflow state. Surrounding whitespace is stripped
// from issueId and targetState before they are checked and forwarded. A
// supplied targetStateId bypasses name resolution. The order hint is accepted
// and ignored.
func (f *MutationForwarderImpl) Move(ctx context.Context, request models.MoveRequest) (*models.MoveResult, error) {
	request.IssueID = strings.TrimSpace(request.IssueID)
	request.TargetState = strings.TrimSpace(request.TargetState)
	if err := validateMoveRequest(request); err != nil {
		return nil, err
	}

	stateID := ""
	if request.HasTargetStateID() {
		stateID = strings.TrimSpace(*request.TargetStateID)
	} else {
		resolved, err := f.resolver.Resolve(ctx, request.TargetState)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve state %q: %w", request.TargetState, err)
		}
		stateID = resolved
	}

	if request.HasOrder() {
		f.logger.Debug("Ignoring order hint, Linear has no ordering primitive",
			zap.String("issue_id", request.IssueID),
			zap.Int("order_bytes", len(request.Order)))
	}

	result, err := f.linearService.UpdateIssueState(ctx, request.IssueID, stateID)
	if err != nil {
		return nil, fmt.Errorf("failed to update issue %s: %w", request.IssueID, err)
	}

	f.logger.Info("Moved issue",
		zap.String("issue_id", request.IssueID),
		zap.String("target_state", request.TargetState),
		zap.String("state_id", stateID),
		zap.Bool("success", result.Success))

	return result, nil
}
