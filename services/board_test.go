package services

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linear-board-sync/models"
)

func TestStatusClass(t *testing.T) {
	tests := []struct {
		stateName string
		expected  string
	}{
		{"Backlog", models.StatusClassBacklog},
		{"A Fazer", models.StatusClassTodo},
		{"Todo", models.StatusClassTodo},
		{"Em Progresso", models.StatusClassProgress},
		{"In Progress", models.StatusClassProgress},
		{"Aguardando Cliente", models.StatusClassWaiting},
		{"Waiting for review", models.StatusClassWaiting},
		{"Concluído", models.StatusClassDone},
		{"Done", models.StatusClassDone},
		{"Completed", models.StatusClassDone},
		{"Cancelado", models.StatusClassCancelled},
		{"Cancelled", models.StatusClassCancelled},
		{"Triage", models.StatusClassBacklog},
		{"", models.StatusClassBacklog},
	}

	for _, tt := range tests {
		t.Run(tt.stateName, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusClass(tt.stateName))
		})
	}
}

func TestLabelClass(t *testing.T) {
	tests := []struct {
		color    string
		expected string
	}{
		{"", models.LabelClassDefault},
		{"#00FF88", models.LabelClassGreen},
		{"green", models.LabelClassGreen},
		{"#a855f7", models.LabelClassPurple},
		{"#3B82F6", models.LabelClassBlue},
		{"orange", models.LabelClassOrange},
		{"#f97316", models.LabelClassOrange},
		{"#bec2c8", models.LabelClassDefault},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			assert.Equal(t, tt.expected, LabelClass(tt.color))
		})
	}
}

func TestInitials(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"Ana Maria Souza", "AM"},
		{"joão", "J"},
		{"  élio   brito ", "ÉB"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Initials(tt.name))
		})
	}
}

func boardIssue(id, stateID, stateName string) models.Issue {
	return models.Issue{
		ID:         id,
		Identifier: strings.ToUpper(id),
		Title:      "Issue " + id,
		URL:        "https://linear.app/rr/issue/" + id,
		State:      &models.IssueState{ID: stateID, Name: stateName},
	}
}

func columnNames(board models.Board) []string {
	var names []string
	for _, column := range board.Columns {
		names = append(names, column.StateName)
	}
	return names
}

func TestBuildBoard(t *testing.T) {
	generatedAt := time.Date(2025, 7, 7, 5, 30, 0, 0, time.FixedZone("BRT", -3*60*60))

	t.Run("configured order first then first-seen order", func(t *testing.T) {
		issues := []models.Issue{
			boardIssue("rr-1", "s-triage", "Triage"),
			boardIssue("rr-2", "s-done", "Concluído"),
			boardIssue("rr-3", "s-backlog", "Backlog"),
			boardIssue("rr-4", "s-review", "Review"),
			boardIssue("rr-5", "s-done", "Concluído"),
		}

		board := BuildBoard("rr-intermediacoes", issues, models.DefaultColumnOrder, "https://worker.example.com/", generatedAt)

		assert.Equal(t, []string{"Backlog", "Concluído", "Triage", "Review"}, columnNames(board))
		assert.Equal(t, 5, board.IssueCount)
		assert.Equal(t, "https://worker.example.com", board.WorkerURL)
		assert.Equal(t, time.UTC, board.GeneratedAt.Location())
		assert.Equal(t, 8, board.GeneratedAt.Hour())

		done := board.Columns[1]
		require.Equal(t, 2, done.Count())
		assert.Equal(t, "rr-2", done.Cards[0].IssueID)
		assert.Equal(t, 0, done.Cards[0].OrderIndex)
		assert.Equal(t, "rr-5", done.Cards[1].IssueID)
		assert.Equal(t, 1, done.Cards[1].OrderIndex)
		assert.Equal(t, "s-done", done.Cards[1].StateID)
		assert.Equal(t, models.StatusClassDone, done.Cards[1].StatusClass)
	})

	t.Run("duplicate configured names produce one column", func(t *testing.T) {
		issues := []models.Issue{boardIssue("rr-1", "s-backlog", "Backlog")}

		board := BuildBoard("view", issues, []string{"Backlog", "Backlog"}, "", generatedAt)

		assert.Equal(t, []string{"Backlog"}, columnNames(board))
	})

	t.Run("issues without a state land in Unknown", func(t *testing.T) {
		issue := boardIssue("rr-1", "", "")
		issue.State = nil

		board := BuildBoard("view", []models.Issue{issue}, nil, "", generatedAt)

		require.Len(t, board.Columns, 1)
		assert.Equal(t, models.UnknownStateName, board.Columns[0].StateName)
		assert.Empty(t, board.Columns[0].Cards[0].StateID)
	})

	t.Run("card details", func(t *testing.T) {
		issue := boardIssue("rr-1", "s-backlog", "Backlog")
		issue.Title = ""
		issue.UpdatedAt = models.LinearTime{Time: time.Date(2025, 7, 7, 8, 0, 0, 0, time.FixedZone("BRT", -3*60*60))}
		issue.Assignee = &models.LinearUser{Name: "Ana Maria Souza"}
		issue.Labels.Nodes = []models.LinearLabel{
			{Name: "bug", Color: "#f97316"},
			{Name: "frontend", Color: "#3b82f6"},
			{Name: "urgent", Color: "#a855f7"},
			{Name: "extra", Color: "#00ff88"},
		}
		unassigned := boardIssue("rr-2", "s-backlog", "Backlog")
		unassigned.Assignee = &models.LinearUser{}

		board := BuildBoard("view", []models.Issue{issue, unassigned}, nil, "", generatedAt)

		card := board.Columns[0].Cards[0]
		assert.Equal(t, "Untitled", card.Title)
		assert.Equal(t, time.Date(2025, 7, 7, 11, 0, 0, 0, time.UTC), card.UpdatedAt)
		assert.True(t, board.Columns[0].Cards[1].UpdatedAt.IsZero())
		require.Len(t, card.Labels, models.MaxCardLabels)
		assert.Equal(t, models.BoardLabel{Name: "bug", Class: models.LabelClassOrange}, card.Labels[0])
		assert.Equal(t, models.LabelClassPurple, card.Labels[2].Class)
		require.NotNil(t, card.Assignee)
		assert.Equal(t, "AM", card.Assignee.Initials)

		assert.Nil(t, board.Columns[0].Cards[1].Assignee)
	})

	t.Run("no issues", func(t *testing.T) {
		board := BuildBoard("view", nil, models.DefaultColumnOrder, "", generatedAt)

		assert.Empty(t, board.Columns)
		assert.Equal(t, 0, board.IssueCount)
	})
}

func TestRenderBoard(t *testing.T) {
	issue := boardIssue("rr-7", "s-progress", "Em Progresso")
	issue.Title = `Fix <script>alert("x")</script> in header`
	issue.Assignee = &models.LinearUser{Name: "Ana Souza", AvatarURL: "https://avatars.example.com/ana.png"}
	issue.Labels.Nodes = []models.LinearLabel{{Name: "bug", Color: "#f97316"}}
	issue.UpdatedAt = models.LinearTime{Time: time.Date(2025, 7, 6, 21, 15, 0, 0, time.FixedZone("BRT", -3*60*60))}
	stale := boardIssue("rr-8", "s-progress", "Em Progresso")

	board := BuildBoard("rr-intermediacoes", []models.Issue{issue, stale}, models.DefaultColumnOrder, "https://worker.example.com",
		time.Date(2025, 7, 7, 8, 29, 32, 0, time.UTC))
	board.Logos = []string{"assets/png/logo.png"}

	var buf bytes.Buffer
	require.NoError(t, RenderBoard(&buf, board))
	page := buf.String()

	assert.Contains(t, page, "<title>rr-intermediacoes - Linear Dashboard</title>")
	assert.Contains(t, page, "Updated 2025-07-07T08:29:32Z")
	assert.Contains(t, page, `data-issue-id="rr-7"`)
	assert.Contains(t, page, `data-state-id="s-progress"`)
	assert.Contains(t, page, `data-state-name="Em Progresso"`)
	assert.Contains(t, page, `data-order-index="0"`)
	assert.Contains(t, page, `class="status-indicator status-progress"`)
	assert.Contains(t, page, `class="label label-orange"`)
	assert.Contains(t, page, `src="https://avatars.example.com/ana.png"`)
	assert.Contains(t, page, `src="assets/png/logo.png"`)
	assert.Contains(t, page, `const WORKER_URL = "`)
	assert.Contains(t, page, "worker.example.com")
	assert.NotContains(t, page, `<script>alert("x")</script>`)
	assert.Contains(t, page, "&lt;script&gt;")
	assert.Contains(t, page, `title="Updated 2025-07-07 00:15 UTC"`)
	assert.Equal(t, 1, strings.Count(page, `title="Updated`))

	t.Run("without worker url", func(t *testing.T) {
		board.WorkerURL = ""
		board.Logos = nil

		var buf bytes.Buffer
		require.NoError(t, RenderBoard(&buf, board))

		assert.Contains(t, buf.String(), `const WORKER_URL = "";`)
		assert.NotContains(t, buf.String(), "brand-logo\"")
	})
}
