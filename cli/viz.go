// ABOUTME: Visualization CLI commands
// ABOUTME: Handles viz dashboard and graph generation commands
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/viz"
)

// VizGraphContactsCommand generates the contact network graph, optionally around one contact.
func VizGraphContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz graph contacts", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	var contactID *uuid.UUID
	if fs.NArg() > 0 {
		id, err := uuid.Parse(fs.Arg(0))
		if err != nil {
			return fmt.Errorf("invalid contact ID: %w", err)
		}
		contactID = &id
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(app.DB).GenerateContactGraph(ctx, user.ID, contactID)
	if err != nil {
		return err
	}
	return writeGraph(app, *output, dot)
}

// VizGraphAllCommand generates a complete graph of the user and every contact.
func VizGraphAllCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz graph all", flag.ContinueOnError)
	output := fs.String("output", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	dot, err := viz.NewGraphGenerator(app.DB).GenerateCompleteGraph(ctx, user)
	if err != nil {
		return err
	}
	return writeGraph(app, *output, dot)
}

// VizDashboardCommand prints the terminal dashboard.
func VizDashboardCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	dashboard, err := app.Service.Dashboard(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to generate dashboard: %w", err)
	}
	now := app.Service.Now()
	counts, err := db.ContactStatusCounts(ctx, app.DB, user.ID, now)
	if err != nil {
		return fmt.Errorf("failed to count contacts: %w", err)
	}

	app.printf("%s", viz.RenderDashboard(dashboard, counts, now))
	return nil
}

func writeGraph(app *App, output, dot string) error {
	if output != "" {
		return os.WriteFile(output, []byte(dot), 0644)
	}
	app.printf("%s\n", dot)
	return nil
}
