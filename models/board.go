package models

import "time"

// Status indicator classes used on board cards
const (
	StatusClassBacklog   = "status-backlog"
	StatusClassTodo      = "status-todo"
	StatusClassProgress  = "status-progress"
	StatusClassWaiting   = "status-waiting"
	StatusClassDone      = "status-done"
	StatusClassCancelled = "status-cancelled"
)

// Label colour classes used on board cards
const (
	LabelClassDefault = "label-default"
	LabelClassGreen   = "label-green"
	LabelClassPurple  = "label-purple"
	LabelClassBlue    = "label-blue"
	LabelClassOrange  = "label-orange"
)

// MaxCardLabels is the number of labels shown per card
const MaxCardLabels = 3

// Board is the rendering model of the static kanban page
type Board struct {
	Title       string
	GeneratedAt time.Time
	WorkerURL   string
	Columns     []BoardColumn
	IssueCount  int
	Logos       []string // Paths of copied image assets, relative to the page
}

// BoardColumn is one workflow state column of the board
type BoardColumn struct {
	StateName string
	Cards     []BoardCard
}

// Count returns the number of cards in the column
func (c BoardColumn) Count() int {
	return len(c.Cards)
}

// BoardCard is one draggable issue card
type BoardCard struct {
	IssueID     string
	StateID     string
	StateName   string
	OrderIndex  int
	Identifier  string
	Title       string
	URL         string
	UpdatedAt   time.Time // Zero when Linear did not report it
	StatusClass string
	Labels      []BoardLabel
	Assignee    *BoardAssignee
}

// BoardLabel is a label chip on a card
type BoardLabel struct {
	Name  string
	Class string
}

// BoardAssignee is the assignee badge on a card; Initials is used when AvatarURL is empty
type BoardAssignee struct {
	Name      string
	AvatarURL string
	Initials  string
}
