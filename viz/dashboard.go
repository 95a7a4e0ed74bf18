// ABOUTME: Terminal dashboard rendering
// ABOUTME: Plain-text overview of contact status, due contacts, and recent activity
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/db"
)

// RenderDashboard renders the dashboard for a terminal that may not support colors.
func RenderDashboard(d *crm.Dashboard, counts db.StatusCounts, now time.Time) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  TOUCHBASE DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("STATUS\n")
	renderStatusBars(&out, counts)
	out.WriteString("\n")

	out.WriteString("DUE\n")
	if len(d.Due) == 0 {
		out.WriteString("  Everyone is in touch.\n")
	}
	for _, dc := range d.Due {
		fmt.Fprintf(&out, "  %-24s %3d days overdue  (last %s)\n",
			truncate(dc.Contact.Name, 24), dc.Urgency, lastSeen(dc.HasInteraction, dc.LastInteraction, now))
	}
	out.WriteString("\n")

	if len(d.Recent) > 0 {
		out.WriteString("RECENT\n")
		for _, cc := range d.Recent {
			fmt.Fprintf(&out, "  %-24s %3d interactions\n", truncate(cc.Name, 24), cc.InteractionCount)
		}
		out.WriteString("\n")
	}

	if len(d.Frequent) > 0 {
		out.WriteString("FREQUENT\n")
		for _, cc := range d.Frequent {
			fmt.Fprintf(&out, "  %-24s %3d interactions\n", truncate(cc.Name, 24), cc.InteractionCount)
		}
		out.WriteString("\n")
	}

	if len(d.FollowUps) > 0 {
		out.WriteString("FOLLOW UP\n")
		for _, f := range d.FollowUps {
			date := "soon"
			if f.Date != nil {
				date = f.Date.Format("2006-01-02")
			}
			fmt.Fprintf(&out, "  %s  %s\n", date, f.InteractionTitle)
		}
	}

	return out.String()
}

func renderStatusBars(out *strings.Builder, counts db.StatusCounts) {
	rows := []struct {
		label string
		n     int
	}{
		{"out of touch", counts.OutOfTouch},
		{"in touch", counts.InTouch},
		{"hidden", counts.Hidden},
	}
	maxCount := max(counts.OutOfTouch, counts.InTouch, counts.Hidden, 1)
	for _, r := range rows {
		barLength := (r.n * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		fmt.Fprintf(out, "  %-13s %s  %d\n", r.label, bar, r.n)
	}
}

func lastSeen(has bool, last, now time.Time) string {
	if !has {
		return "never"
	}
	days := int(now.Sub(last).Hours() / 24)
	switch days {
	case 0:
		return "today"
	case 1:
		return "yesterday"
	}
	return fmt.Sprintf("%d days ago", days)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
