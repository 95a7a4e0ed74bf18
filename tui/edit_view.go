package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/touchbase/crm"
)

// Contact form fields
const (
	fieldName = iota
	fieldFrequency
	fieldEmail
	fieldPhone
	fieldNotes
)

func (m Model) renderEditView() string {
	var s strings.Builder

	// Title
	if m.editing {
		s.WriteString(titleStyle.Render("EDIT CONTACT"))
	} else {
		s.WriteString(titleStyle.Render("NEW CONTACT"))
	}
	s.WriteString("\n\n")

	// Form fields
	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.err = nil
		if m.editing {
			m.viewMode = ViewDetail
		} else {
			m.viewMode = ViewList
		}
		return m, nil
	case "tab":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "shift+tab":
		m.focusIndex = (m.focusIndex + len(m.formInputs) - 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		if err := m.saveContact(); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		if m.editing {
			m.loadDetail()
			m.viewMode = ViewDetail
		} else {
			m.reload()
			m.viewMode = ViewList
		}
		return m, nil
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m *Model) initFormInputs() {
	inputs := make([]textinput.Model, 5)

	inputs[fieldName] = textinput.New()
	inputs[fieldName].Placeholder = "Name"
	inputs[fieldName].CharLimit = 200

	inputs[fieldFrequency] = textinput.New()
	inputs[fieldFrequency].Placeholder = "Stay in touch every N days (blank to skip)"
	inputs[fieldFrequency].CharLimit = 4

	inputs[fieldEmail] = textinput.New()
	inputs[fieldEmail].Placeholder = "Email"
	inputs[fieldEmail].CharLimit = 200

	inputs[fieldPhone] = textinput.New()
	inputs[fieldPhone].Placeholder = "Phone"
	inputs[fieldPhone].CharLimit = 40

	inputs[fieldNotes] = textinput.New()
	inputs[fieldNotes].Placeholder = "Notes"
	inputs[fieldNotes].CharLimit = 4000

	// If editing, populate fields; email and phone add another entry
	if m.editing && m.contactDetail != nil {
		c := m.contactDetail.Contact
		inputs[fieldName].SetValue(c.Name)
		if c.FrequencyInDays != nil {
			inputs[fieldFrequency].SetValue(strconv.Itoa(*c.FrequencyInDays))
		}
		inputs[fieldNotes].SetValue(c.Description)
		inputs[fieldEmail].Placeholder = "Add email"
		inputs[fieldPhone].Placeholder = "Add phone"
	}

	m.formInputs = inputs
	m.focusIndex = 0
	m.err = nil
	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m *Model) saveContact() error {
	value := func(i int) string {
		return strings.TrimSpace(m.formInputs[i].Value())
	}

	in := crm.ContactInput{
		Name:        value(fieldName),
		Description: value(fieldNotes),
	}
	if f := value(fieldFrequency); f != "" {
		days, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("frequency must be a number of days")
		}
		in.FrequencyInDays = &days
	}
	email, phone := value(fieldEmail), value(fieldPhone)

	if !m.editing {
		if email != "" {
			in.Emails = []string{email}
		}
		if phone != "" {
			in.Phones = []string{phone}
		}
		contact, err := m.svc.CreateContact(m.ctx, m.userID, in)
		if err != nil {
			return err
		}
		m.message = fmt.Sprintf("✓ Created contact: %s", contact.Name)
		return nil
	}

	existing := m.contactDetail.Contact
	in.LinkedInURL = existing.LinkedInURL
	in.TwitterURL = existing.TwitterURL
	if _, err := m.svc.UpdateContact(m.ctx, m.userID, existing.ID, in); err != nil {
		return err
	}
	if email != "" {
		if _, err := m.svc.AddEmailAddress(m.ctx, m.userID, existing.ID, email); err != nil {
			return err
		}
	}
	if phone != "" {
		if _, err := m.svc.AddPhoneNumber(m.ctx, m.userID, existing.ID, phone); err != nil {
			return err
		}
	}
	m.message = fmt.Sprintf("✓ Updated contact: %s", in.Name)
	return nil
}
