package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	apperr "github.com/matzehuels/socraticboard/pkg/errors"
	"github.com/matzehuels/socraticboard/pkg/workspace"
)

var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	statusStyle  = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
)

// =============================================================================
// ReviewModel - Interactive annotation review
// =============================================================================

// ReviewResult tallies what the student did during a review.
type ReviewResult struct {
	Approved  []string
	Dismissed []string
}

// ReviewModel is the bubbletea model for approving and dismissing pending
// annotations one at a time.
type ReviewModel struct {
	ctx     context.Context
	ws      *workspace.Workspace
	Items   []workspace.PendingAnnotation
	Cursor  int
	Height  int
	Offset  int
	Status  string
	Result  ReviewResult
	Aborted bool
}

// NewReviewModel creates a review model over ws's pending annotations.
func NewReviewModel(ctx context.Context, ws *workspace.Workspace) ReviewModel {
	return ReviewModel{
		ctx:    ctx,
		ws:     ws,
		Items:  ws.Pending(),
		Height: 10,
	}
}

func (m ReviewModel) Init() tea.Cmd {
	return nil
}

func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		case "q":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "a", "enter":
			return m.resolve(true)
		case "d", "x":
			return m.resolve(false)
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 3)
	}
	return m, nil
}

// resolve approves or dismisses the annotation under the cursor and quits
// once nothing is left.
func (m ReviewModel) resolve(approve bool) (tea.Model, tea.Cmd) {
	if len(m.Items) == 0 {
		return m, tea.Quit
	}
	item := m.Items[m.Cursor]
	if approve {
		out, err := m.ws.Approve(m.ctx, item.ID)
		switch {
		case err != nil:
			m.Status = "approve failed: " + apperr.UserMessage(err)
			return m, nil
		case out.Resolved:
			m.Result.Approved = append(m.Result.Approved, item.ID)
			m.Status = fmt.Sprintf("approved %s", item.ID)
		}
	} else if m.ws.Dismiss(m.ctx, item.ID) {
		m.Result.Dismissed = append(m.Result.Dismissed, item.ID)
		m.Status = fmt.Sprintf("dismissed %s", item.ID)
	}

	m.Items = m.ws.Pending()
	if len(m.Items) == 0 {
		return m, tea.Quit
	}
	m.Cursor = min(m.Cursor, len(m.Items)-1)
	m.Offset = min(m.Offset, m.Cursor)
	return m, nil
}

func (m ReviewModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Review Annotations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  a approve  d dismiss  q done"))
	b.WriteString("\n\n")

	if len(m.Items) == 0 {
		b.WriteString(listDimStyle.Render("  nothing pending"))
		b.WriteString("\n")
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		it := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		where := "—"
		if it.Position != nil {
			where = fmt.Sprintf("%g,%g", it.Position.X, it.Position.Y)
		}
		rows = append(rows, []string{cursor, it.Kind.Label(), where, truncate(it.Text, 56)})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Kind", "At", "Text").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Items) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if col == 1 {
				base = kindStyle(m.Items[idx].Kind.Color())
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			if col == 1 {
				return base
			}
			return base.Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	if m.Status != "" {
		b.WriteString("  ")
		b.WriteString(statusStyle.Render(m.Status))
	}
	return b.String()
}
