package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

func (m Model) renderListView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("TOUCHBASE"))
	s.WriteString("\n\n")

	// Tabs
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	if m.tab == TabSync {
		s.WriteString(m.renderSyncView())
		return s.String()
	}

	// Table
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	} else {
		s.WriteString(m.renderTable())
	}
	s.WriteString("\n")

	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderListHelp())

	return s.String()
}

func (m Model) renderTabs() string {
	var rendered []string

	for i, tab := range tabNames {
		if Tab(i) == m.tab {
			rendered = append(rendered, tabActiveStyle.Render(tab))
		} else {
			rendered = append(rendered, tabInactiveStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderTable() string {
	switch m.tab {
	case TabDue:
		return m.renderDueTable()
	case TabContacts:
		return m.renderContactsTable()
	case TabInteractions:
		return m.renderInteractionsTable()
	}
	return ""
}

func (m Model) renderContactsTable() string {
	columns := []table.Column{
		{Title: "Name", Width: 30},
		{Title: "Status", Width: 14},
		{Title: "Every", Width: 8},
		{Title: "Urgency", Width: 8},
	}

	var rows []table.Row
	for _, dc := range m.contacts {
		every := "-"
		if dc.Contact.Tracked() {
			every = fmt.Sprintf("%dd", *dc.Contact.FrequencyInDays)
		}
		rows = append(rows, table.Row{
			dc.Contact.Name,
			dc.Status.String(),
			every,
			fmt.Sprintf("%d", dc.Urgency),
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) renderInteractionsTable() string {
	columns := []table.Column{
		{Title: "When", Width: 12},
		{Title: "Type", Width: 12},
		{Title: "Title", Width: 40},
		{Title: "With", Width: 6},
	}

	var rows []table.Row
	for _, it := range m.interactions {
		kind := "-"
		if it.Type != nil {
			kind = *it.Type
		}
		rows = append(rows, table.Row{
			it.WasAt.Format("2006-01-02"),
			kind,
			it.Title,
			fmt.Sprintf("%d", len(it.ContactIDs)),
		})
	}

	return m.newTable(columns, rows).View()
}

func (m Model) newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(max(m.height-10, 3)),
	)

	// Set selected row
	if m.selectedRow < len(rows) {
		t.SetCursor(m.selectedRow)
	}
	return t
}

func (m Model) renderListHelp() string {
	help := []string{
		"↑/↓: Navigate",
		"Tab: Switch tabs",
		"Enter: View details",
		"t: Touchpoint",
		"n: New contact",
		"r: Refresh",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "tab" {
		m.tab = (m.tab + 1) % Tab(len(tabNames))
		m.selectedRow = 0
		m.message = ""
		m.reload()
		return m, nil
	}
	if m.tab == TabSync {
		return m.handleSyncKeys(msg)
	}

	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < m.rowCount()-1 {
			m.selectedRow++
		}
	case "enter":
		m.openDetail()
	case "t":
		if id, ok := m.selectedContactID(); ok {
			m.touch(id)
			m.reload()
		}
	case "n":
		// Switch to edit view (new)
		m.editing = false
		m.viewMode = ViewEdit
		m.initFormInputs()
	case "r":
		m.message = ""
		m.reload()
	}

	return m, nil
}

// selectedContactID is the contact under the cursor on the contact tabs.
func (m Model) selectedContactID() (uuid.UUID, bool) {
	switch m.tab {
	case TabDue:
		if m.selectedRow < len(m.due) {
			return m.due[m.selectedRow].Contact.ID, true
		}
	case TabContacts:
		if m.selectedRow < len(m.contacts) {
			return m.contacts[m.selectedRow].Contact.ID, true
		}
	}
	return uuid.Nil, false
}

// touch records a touchpoint and reports the outcome in the status line.
func (m *Model) touch(contactID uuid.UUID) {
	res, err := m.svc.AddTouchpoint(m.ctx, m.userID, contactID)
	if err != nil {
		m.message = "Error: " + err.Error()
		return
	}
	m.message = res.Notice
}
