package models

import (
	"encoding/json"
	"strings"
	"time"
)

// LinearTime handles the ISO8601 timestamps returned by Linear
// Example: 2025-07-07T08:29:32.123Z
type LinearTime struct {
	time.Time
}

func (lt *LinearTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		lt.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	lt.Time = t
	return nil
}

// WorkflowState represents one workflow status of a Linear team
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueState is the state projection carried on an issue
type IssueState struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueProjection is the subset of an updated issue returned by the issueUpdate mutation
type IssueProjection struct {
	ID    string     `json:"id"`
	State IssueState `json:"state"`
}

// LinearUser represents the assignee of an issue
type LinearUser struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

// LinearLabel represents an issue label
type LinearLabel struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// LinearLabels is the connection wrapper Linear uses for label lists
type LinearLabels struct {
	Nodes []LinearLabel `json:"nodes"`
}

// Issue represents a Linear issue as shown on the board
type Issue struct {
	ID         string       `json:"id"`
	Identifier string       `json:"identifier"`
	Title      string       `json:"title"`
	URL        string       `json:"url"`
	UpdatedAt  LinearTime   `json:"updatedAt"`
	State      *IssueState  `json:"state,omitempty"`
	Assignee   *LinearUser  `json:"assignee,omitempty"`
	Labels     LinearLabels `json:"labels"`
}

// StateName returns the name of the issue's state, or "Unknown" if it has none
func (i Issue) StateName() string {
	if i.State == nil || i.State.Name == "" {
		return UnknownStateName
	}
	return i.State.Name
}

// StateID returns the id of the issue's state, or an empty string if it has none
func (i Issue) StateID() string {
	if i.State == nil {
		return ""
	}
	return i.State.ID
}

// UnknownStateName is the column used for issues that carry no state
const UnknownStateName = "Unknown"

// CustomView represents a saved Linear custom view
type CustomView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GraphQLError is one entry of the errors array of a GraphQL response
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// MoveRequest is the body of a POST /update request
type MoveRequest struct {
	IssueID       string          `json:"issueId"`
	TargetState   string          `json:"targetState"`
	TargetStateID *string         `json:"targetStateId,omitempty"`
	Order         json.RawMessage `json:"order,omitempty"` // Accepted but never applied; Linear offers no ordering primitive
}

// HasTargetStateID reports whether the caller supplied a non-empty target state id
func (r MoveRequest) HasTargetStateID() bool {
	return r.TargetStateID != nil && strings.TrimSpace(*r.TargetStateID) != ""
}

// HasOrder reports whether the caller supplied an ordering hint
func (r MoveRequest) HasOrder() bool {
	trimmed := strings.TrimSpace(string(r.Order))
	return trimmed != "" && trimmed != "null"
}

// MoveResult is the outcome of an issueUpdate mutation, relayed to the caller as received
type MoveResult struct {
	Success bool            `json:"success"`
	Issue   IssueProjection `json:"issue"`
}
