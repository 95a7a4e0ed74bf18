// ABOUTME: Follow-up tracking CLI commands
// ABOUTME: Lists who to reach out to next, analysis follow-ups, and network health
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

// dueSoonDays marks tracked contacts that become due within this many days.
const dueSoonDays = 3

// FollowupListCommand lists tracked contacts by urgency and the follow-ups analyses suggested.
func FollowupListCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("followups", flag.ContinueOnError)
	overdueOnly := fs.Bool("overdue-only", false, "Show only overdue contacts")
	limit := fs.Int("limit", 10, "Maximum number of contacts to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	var filter *models.ContactStatus
	if *overdueOnly {
		st := models.StatusOutOfTouch
		filter = &st
	}
	overview, err := app.Service.ContactOverview(ctx, user.ID, filter)
	if err != nil {
		return fmt.Errorf("failed to get followup list: %w", err)
	}

	contacts := overview.Contacts
	if len(contacts) > *limit {
		contacts = contacts[:*limit]
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tDAYS SINCE\tEVERY\tURGENCY")
	_, _ = fmt.Fprintln(w, "----\t----------\t-----\t-------")
	for _, dc := range contacts {
		indicator := "🟢"
		if dc.Urgency > 0 {
			indicator = "🔴"
		} else if dc.Urgency >= -dueSoonDays {
			indicator = "🟡"
		}
		_, _ = fmt.Fprintf(w, "%s %s\t%d\t%s\t%d\n",
			indicator, dc.Contact.Name, models.ElapsedDays(dc.LastInteraction, app.Service.Now()),
			cadence(&dc.Contact), dc.Urgency)
	}
	_ = w.Flush()

	followUps, err := db.ListFollowUps(ctx, app.DB, user.ID, *limit)
	if err != nil {
		return fmt.Errorf("failed to list follow-ups: %w", err)
	}
	if len(followUps) > 0 {
		app.printf("\nSUGGESTED FOLLOW-UPS\n")
		for _, f := range followUps {
			date := "soon"
			if f.Date != nil {
				date = f.Date.Format("2006-01-02")
			}
			app.printf("  %s  %s (from %s)\n", date, f.InteractionTitle, f.WasAt.Format("2006-01-02"))
		}
	}
	return nil
}

// FollowupStatsCommand shows how many contacts are in and out of touch.
func FollowupStatsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	counts, err := db.ContactStatusCounts(ctx, app.DB, user.ID, app.Service.Now())
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	app.printf("NETWORK HEALTH\n")
	app.printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	app.printf("  🔴 out of touch: %d\n", counts.OutOfTouch)
	app.printf("  🟢 in touch:     %d\n", counts.InTouch)
	app.printf("  ⚪ hidden:       %d\n", counts.Hidden)
	app.printf("  tracked:         %d\n", counts.Selected)
	return nil
}
