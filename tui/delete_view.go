// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Handles deletion of contacts and interactions with a confirmation dialog
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	entityType, entityName := m.deleteTarget()

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := fmt.Sprintf("Are you sure you want to delete this %s?", entityType)
	entityInfo := fmt.Sprintf("\n%s: %s\n", strings.ToUpper(entityType), entityName)
	warning := "\nThis action cannot be undone!"
	if entityType == "contact" {
		warning = "\nIts addresses and interaction links go too. This action cannot be undone!"
	}

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		entityInfo,
		warning,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) deleteTarget() (string, string) {
	if m.interactionDetail != nil {
		return "interaction", m.interactionDetail.Interaction.Title
	}
	if m.contactDetail != nil {
		return "contact", m.contactDetail.Contact.Name
	}
	return "entry", ""
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		entityType, _ := m.deleteTarget()
		if err := m.performDelete(); err != nil {
			m.message = "Error: " + err.Error()
		} else {
			m.message = fmt.Sprintf("✓ Deleted %s", entityType)
			m.selectedID = uuid.Nil
			m.contactDetail = nil
			m.interactionDetail = nil
		}
		m.viewMode = ViewList
		m.reload()
	case "n", "N", "esc":
		// Cancel delete
		m.viewMode = ViewDetail
	}

	return m, nil
}

func (m Model) performDelete() error {
	switch {
	case m.interactionDetail != nil:
		return m.svc.DeleteInteraction(m.ctx, m.userID, m.selectedID)
	case m.contactDetail != nil:
		return m.svc.DeleteContact(m.ctx, m.userID, m.selectedID)
	default:
		return fmt.Errorf("nothing selected")
	}
}
