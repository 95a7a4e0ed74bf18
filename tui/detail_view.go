package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	attentionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)
)

// openDetail loads the row under the cursor and switches to the detail view.
func (m *Model) openDetail() {
	m.message = ""
	switch m.tab {
	case TabDue, TabContacts:
		id, ok := m.selectedContactID()
		if !ok {
			return
		}
		m.selectedID = id
		m.interactionDetail = nil
	case TabInteractions:
		if m.selectedRow >= len(m.interactions) {
			return
		}
		m.selectedID = m.interactions[m.selectedRow].ID
		m.contactDetail = nil
	default:
		return
	}
	m.loadDetail()
	m.viewMode = ViewDetail
}

func (m *Model) loadDetail() {
	m.err = nil
	if m.tab == TabInteractions {
		view, err := m.svc.InteractionDetail(m.ctx, m.userID, m.selectedID)
		if err != nil {
			m.err = err
			return
		}
		m.interactionDetail = view
		return
	}
	detail, err := m.svc.ContactDetail(m.ctx, m.userID, m.selectedID)
	if err != nil {
		m.err = err
		return
	}
	m.contactDetail = detail
}

func (m Model) renderDetailView() string {
	var s strings.Builder

	// Title
	s.WriteString(titleStyle.Render("DETAIL VIEW"))
	s.WriteString("\n\n")

	switch {
	case m.err != nil:
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
	case m.interactionDetail != nil:
		s.WriteString(m.renderInteractionDetail())
	case m.contactDetail != nil:
		s.WriteString(m.renderContactDetail())
	}

	s.WriteString("\n")
	if m.message != "" {
		s.WriteString(messageStyle.Render(m.message))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderContactDetail() string {
	d := m.contactDetail
	var s strings.Builder

	s.WriteString(m.renderField("Name", d.Contact.Name))
	every := ""
	if d.Contact.Tracked() {
		every = fmt.Sprintf("every %d days", *d.Contact.FrequencyInDays)
	}
	s.WriteString(m.renderField("Stay in touch", every))
	s.WriteString(m.renderField("Status", d.Urgency.Status.String()))
	if d.Urgency.DueDate != nil {
		s.WriteString(m.renderField("Due", d.Urgency.DueDate.Format("2006-01-02")))
	}
	if d.Urgency.HasInteraction {
		s.WriteString(m.renderField("Last interaction", d.Urgency.LastInteraction.Format("2006-01-02")))
	}

	var emails []string
	for _, e := range d.Emails {
		emails = append(emails, e.Email)
	}
	s.WriteString(m.renderField("Email", strings.Join(emails, ", ")))

	var phones []string
	for _, p := range d.Phones {
		phones = append(phones, p.PhoneNumber)
	}
	s.WriteString(m.renderField("Phone", strings.Join(phones, ", ")))
	s.WriteString(m.renderField("LinkedIn", d.Contact.LinkedInURL))
	s.WriteString(m.renderField("Twitter", d.Contact.TwitterURL))

	if d.Contact.Description != "" {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Notes:"))
		s.WriteString("\n")
		s.WriteString(fieldValueStyle.Render(d.Contact.Description))
		s.WriteString("\n")
	}

	if len(d.Interactions) > 0 {
		s.WriteString("\n")
		s.WriteString(fieldLabelStyle.Render("Interactions:"))
		s.WriteString("\n")
		for _, it := range d.Interactions {
			s.WriteString(fmt.Sprintf("  • %s  %s\n", it.WasAt.Format("2006-01-02"), it.Title))
		}
	}

	return s.String()
}

func (m Model) renderInteractionDetail() string {
	v := m.interactionDetail
	var s strings.Builder

	s.WriteString(m.renderField("Title", v.Interaction.Title))
	s.WriteString(m.renderField("When", v.Interaction.WasAt.Format("2006-01-02 15:04")))
	kind := ""
	if v.Interaction.Type != nil {
		kind = *v.Interaction.Type
	}
	s.WriteString(m.renderField("Type", kind))

	var names []string
	for _, c := range v.Contacts {
		names = append(names, c.Name)
	}
	s.WriteString(m.renderField("With", strings.Join(names, ", ")))

	if v.Interaction.Description != "" {
		s.WriteString("\n")
		s.WriteString(fieldValueStyle.Render(v.Interaction.Description))
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if v.Analysis == nil {
		s.WriteString(fieldValueStyle.Render(v.Notice))
		s.WriteString("\n")
		return s.String()
	}

	a := v.Analysis
	s.WriteString(m.renderField("Sentiment", fmt.Sprintf("%s (%.0f%%)", v.SentimentLabel, v.SentimentPercentage)))
	s.WriteString(m.renderField("Topics", strings.Join(a.TopicsDiscussed, ", ")))
	s.WriteString(m.renderField("Action items", strings.Join(a.ActionItems, "; ")))
	s.WriteString(m.renderField("Insights", strings.Join(a.KeyInsights, "; ")))
	if a.FollowUpNeeded {
		followUp := "needed"
		if a.SuggestedFollowUpDate != nil {
			followUp = "by " + a.SuggestedFollowUpDate.Format("2006-01-02")
		}
		s.WriteString(m.renderField("Follow up", followUp))
	}
	if v.NeedsAttention {
		s.WriteString(attentionStyle.Render("Needs attention"))
		s.WriteString("\n")
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		value = "-"
	}
	return fmt.Sprintf("%s %s\n",
		fieldLabelStyle.Render(label+":"),
		fieldValueStyle.Render(value))
}

func (m Model) renderDetailHelp() string {
	help := []string{"Esc: Back"}
	if m.contactDetail != nil {
		help = append(help, "t: Touchpoint", "e: Edit", "g: View graph")
	}
	help = append(help, "d: Delete", "q: Quit")
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewList
		m.message = ""
		m.reload()
	case "t":
		if m.contactDetail != nil {
			m.touch(m.selectedID)
			m.loadDetail()
		}
	case "e":
		if m.contactDetail != nil {
			m.editing = true
			m.viewMode = ViewEdit
			m.initFormInputs()
		}
	case "d":
		if m.contactDetail != nil || m.interactionDetail != nil {
			m.viewMode = ViewConfirmDelete
		}
	case "g":
		if m.contactDetail != nil {
			m.generateGraph()
			m.viewMode = ViewGraph
		}
	}

	return m, nil
}
