// ABOUTME: Interaction CLI commands
// ABOUTME: Logs, lists, shows, deletes, and analyzes interactions
package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/touchbase/crm"
)

// LogInteractionCommand logs an interaction with one or more contacts.
func LogInteractionCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("log-interaction", flag.ContinueOnError)
	title := fs.String("title", "", "Interaction title (required)")
	description := fs.String("description", "", "What happened")
	when := fs.String("when", "", "When it happened: YYYY-MM-DD or RFC3339 (default: now)")
	kind := fs.String("type", "", "Type: email, meeting, touchpoint, note")
	var contacts stringList
	fs.Var(&contacts, "contact", "Participant contact ID (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *title == "" {
		return fmt.Errorf("--title is required")
	}

	in := crm.InteractionInput{Title: *title, Description: *description, Type: *kind}
	if *when != "" {
		t, err := parseWhen(*when, app.Config.Location)
		if err != nil {
			return err
		}
		in.WasAt = t
	}
	for _, raw := range contacts {
		id, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("invalid contact ID %q: %w", raw, err)
		}
		in.ContactIDs = append(in.ContactIDs, id)
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	res, err := app.Service.LogInteraction(ctx, user.ID, in)
	if err != nil {
		return fmt.Errorf("failed to log interaction: %w", err)
	}

	app.printf("✓ %s (ID: %s)\n", res.Notice, res.Interaction.ID)
	if res.Analysis != nil {
		app.printf("  Sentiment: %s\n", res.Analysis.SentimentLabel())
		if len(res.Analysis.TopicsDiscussed) > 0 {
			app.printf("  Topics: %s\n", strings.Join(res.Analysis.TopicsDiscussed, ", "))
		}
	}
	return nil
}

// ListInteractionsCommand lists past interactions with tracked contacts.
func ListInteractionsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-interactions", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	interactions, err := app.Service.ListInteractions(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list interactions: %w", err)
	}

	if len(interactions) == 0 {
		app.printf("No interactions found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "WHEN\tTYPE\tTITLE\tCONTACTS\tID")
	_, _ = fmt.Fprintln(w, "----\t----\t-----\t--------\t--")
	for _, it := range interactions {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			it.WasAt.Format("2006-01-02"), typeName(it.Type), it.Title, len(it.ContactIDs), shortID(it.ID))
	}
	_ = w.Flush()

	app.printf("\nTotal: %d interaction(s)\n", len(interactions))
	return nil
}

// ShowInteractionCommand prints an interaction and its analysis.
func ShowInteractionCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("show-interaction", flag.ContinueOnError)
	interactionID, err := parseIDArg(fs, args, "interaction")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	view, err := app.Service.InteractionDetail(ctx, user.ID, interactionID)
	if err != nil {
		return fmt.Errorf("interaction not found: %w", err)
	}

	it := view.Interaction
	app.printf("%s\n", it.Title)
	app.printf("  ID:   %s\n", it.ID)
	app.printf("  When: %s\n", it.WasAt.In(app.Config.Location).Format("2006-01-02 15:04"))
	app.printf("  Type: %s\n", typeName(it.Type))
	names := make([]string, 0, len(view.Contacts))
	for _, c := range view.Contacts {
		names = append(names, c.Name)
	}
	if len(names) > 0 {
		app.printf("  With: %s\n", strings.Join(names, ", "))
	}
	if it.Description != "" {
		app.printf("\n%s\n", it.Description)
	}

	a := view.Analysis
	if a == nil {
		app.printf("\n%s\n", view.Notice)
		return nil
	}
	app.printf("\nSentiment: %s (%.0f%%)\n", view.SentimentLabel, view.SentimentPercentage)
	printList(app, "Topics", a.TopicsDiscussed)
	printList(app, "Action items", a.ActionItems)
	printList(app, "Insights", a.KeyInsights)
	if a.FollowUpNeeded && a.SuggestedFollowUpDate != nil {
		app.printf("Follow up by %s\n", a.SuggestedFollowUpDate.Format("2006-01-02"))
	}
	if a.ConversationContext != "" {
		app.printf("Context: %s\n", a.ConversationContext)
	}
	return nil
}

// DeleteInteractionCommand deletes an interaction.
func DeleteInteractionCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("delete-interaction", flag.ContinueOnError)
	interactionID, err := parseIDArg(fs, args, "interaction")
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	if err := app.Service.DeleteInteraction(ctx, user.ID, interactionID); err != nil {
		return fmt.Errorf("failed to delete interaction: %w", err)
	}

	app.printf("✓ Interaction deleted: %s\n", interactionID)
	return nil
}

// AnalyzeCommand analyzes interactions that have no analysis yet.
func AnalyzeCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Maximum interactions to analyze")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	stats, err := app.Service.AnalyzePending(ctx, user.ID, *limit)
	if err != nil {
		return fmt.Errorf("failed to analyze interactions: %w", err)
	}

	app.printf("✓ Analyzed: %d  Skipped: %d  Failed: %d\n", stats.Analyzed, stats.Skipped, stats.Failed)
	return nil
}

func printList(app *App, label string, items []string) {
	if len(items) == 0 {
		return
	}
	app.printf("%s:\n", label)
	for _, item := range items {
		app.printf("  - %s\n", item)
	}
}

// parseWhen accepts a date in loc or a full RFC3339 timestamp.
func parseWhen(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(time.DateOnly, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DD or RFC3339", s)
	}
	return t, nil
}
