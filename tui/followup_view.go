// ABOUTME: TUI view for follow-up tracking
// ABOUTME: Displays out-of-touch contacts, most overdue first
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
)

func (m Model) renderDueTable() string {
	if len(m.due) == 0 {
		return messageStyle.Render("Everyone is in touch.") + "\n"
	}

	columns := []table.Column{
		{Title: "", Width: 3},
		{Title: "Name", Width: 30},
		{Title: "Overdue", Width: 10},
		{Title: "Every", Width: 8},
		{Title: "Last", Width: 12},
	}

	var rows []table.Row
	for _, dc := range m.due {
		indicator := "🟡"
		if dc.Urgency > *dc.Contact.FrequencyInDays {
			indicator = "🔴"
		}

		last := "never"
		if dc.HasInteraction {
			last = dc.LastInteraction.Format("2006-01-02")
		}

		rows = append(rows, table.Row{
			indicator,
			dc.Contact.Name,
			fmt.Sprintf("%d days", dc.Urgency),
			fmt.Sprintf("%dd", *dc.Contact.FrequencyInDays),
			last,
		})
	}

	return m.newTable(columns, rows).View()
}

