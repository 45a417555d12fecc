package services

import (
	_ "embed"
	"html/template"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"linear-board-sync/models"
)

//go:embed templates/board.html.tmpl
var boardTemplateText string

var boardTemplate = template.Must(template.New("board").Parse(boardTemplateText))

// statusKeywords maps status indicator classes to the state-name keywords that select them, checked in order
var statusKeywords = []struct {
	class    string
	keywords []string
}{
	{models.StatusClassBacklog, []string{"backlog"}},
	{models.StatusClassTodo, []string{"fazer", "todo"}},
	{models.StatusClassProgress, []string{"progresso", "progress"}},
	{models.StatusClassWaiting, []string{"aguardando", "waiting"}},
	{models.StatusClassDone, []string{"concluído", "done", "completed"}},
	{models.StatusClassCancelled, []string{"cancelado", "cancelled"}},
}

// labelKeywords maps label classes to colour names or hex values, checked in order
var labelKeywords = []struct {
	class    string
	keywords []string
}{
	{models.LabelClassGreen, []string{"green", "#00ff88"}},
	{models.LabelClassPurple, []string{"purple", "#a855f7"}},
	{models.LabelClassBlue, []string{"blue", "#3b82f6"}},
	{models.LabelClassOrange, []string{"orange", "#f97316"}},
}

// StatusClass returns the status indicator class for a workflow state name
func StatusClass(stateName string) string {
	lower := strings.ToLower(stateName)
	for _, candidate := range statusKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(lower, keyword) {
				return candidate.class
			}
		}
	}
	return models.StatusClassBacklog
}

// LabelClass returns the chip class for a label colour
func LabelClass(color string) string {
	if color == "" {
		return models.LabelClassDefault
	}
	lower := strings.ToLower(color)
	for _, candidate := range labelKeywords {
		for _, keyword := range candidate.keywords {
			if strings.Contains(lower, keyword) {
				return candidate.class
			}
		}
	}
	return models.LabelClassDefault
}

// Initials returns the upper-cased first letters of the first two words of name
func Initials(name string) string {
	var b strings.Builder
	for i, word := range strings.Fields(name) {
		if i == 2 {
			break
		}
		r, _ := utf8.DecodeRuneInString(word)
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// groupByState groups issues by state name, keeping the order in which states are first seen
func groupByState(issues []models.Issue) ([]string, map[string][]models.Issue) {
	var order []string
	groups := make(map[string][]models.Issue)
	for _, issue := range issues {
		name := issue.StateName()
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], issue)
	}
	return order, groups
}

func newBoardCard(issue models.Issue, stateName string, index int) models.BoardCard {
	card := models.BoardCard{
		IssueID:     issue.ID,
		StateID:     issue.StateID(),
		StateName:   stateName,
		OrderIndex:  index,
		Identifier:  issue.Identifier,
		Title:       issue.Title,
		URL:         issue.URL,
		UpdatedAt:   issue.UpdatedAt.UTC(),
		StatusClass: StatusClass(stateName),
	}
	if card.Title == "" {
		card.Title = "Untitled"
	}

	for i, label := range issue.Labels.Nodes {
		if i == models.MaxCardLabels {
			break
		}
		card.Labels = append(card.Labels, models.BoardLabel{
			Name:  label.Name,
			Class: LabelClass(label.Color),
		})
	}

	if issue.Assignee != nil && issue.Assignee.Name != "" {
		card.Assignee = &models.BoardAssignee{
			Name:      issue.Assignee.Name,
			AvatarURL: issue.Assignee.AvatarURL,
			Initials:  Initials(issue.Assignee.Name),
		}
	}

	return card
}

func newBoardColumn(stateName string, issues []models.Issue) models.BoardColumn {
	column := models.BoardColumn{StateName: stateName}
	for i, issue := range issues {
		column.Cards = append(column.Cards, newBoardCard(issue, stateName, i))
	}
	return column
}

// BuildBoard groups issues into columns. Columns named in columnOrder come
// first, skipping those with no issues; the remaining states follow in the
// order they first appear.
func BuildBoard(title string, issues []models.Issue, columnOrder []string, workerURL string, generatedAt time.Time) models.Board {
	seenOrder, groups := groupByState(issues)

	board := models.Board{
		Title:       title,
		GeneratedAt: generatedAt.UTC(),
		WorkerURL:   strings.TrimRight(workerURL, "/"),
		IssueCount:  len(issues),
	}

	placed := make(map[string]bool)
	for _, name := range columnOrder {
		if placed[name] {
			continue
		}
		stateIssues, ok := groups[name]
		if !ok {
			continue
		}
		placed[name] = true
		board.Columns = append(board.Columns, newBoardColumn(name, stateIssues))
	}

	for _, name := range seenOrder {
		if placed[name] {
			continue
		}
		placed[name] = true
		board.Columns = append(board.Columns, newBoardColumn(name, groups[name]))
	}

	return board
}

// RenderBoard writes the board as a standalone HTML page
func RenderBoard(w io.Writer, board models.Board) error {
	return boardTemplate.Execute(w, board)
}
