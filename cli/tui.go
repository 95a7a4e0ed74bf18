// ABOUTME: CLI commands for the interactive surfaces
// ABOUTME: Starts the terminal dashboard or the web UI for the current user
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/logging"
	"github.com/harperreed/touchbase/models"
	"github.com/harperreed/touchbase/sync"
	"github.com/harperreed/touchbase/tui"
	"github.com/harperreed/touchbase/web"
)

// TUICommand runs the full-screen terminal dashboard.
func TUICommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("tui", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the terminal UI needs an interactive terminal")
	}

	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	model := tui.NewModel(ctx, app.Service, user.ID, app.syncFunc())
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// syncFunc syncs every linked Google account, or nil when Google is not configured.
func (a *App) syncFunc() tui.SyncFunc {
	if a.Config.GoogleClientID == "" || a.Config.GoogleClientSecret == "" {
		return nil
	}
	return func(ctx context.Context) ([]sync.AccountResult, error) {
		accounts, err := db.ListSocialAccounts(ctx, a.DB, models.ProviderGoogle, nil)
		if err != nil {
			return nil, err
		}
		var analyzer sync.InteractionAnalyzer
		if a.Analyzer != nil {
			analyzer = a.Analyzer
		}
		// The TUI owns the terminal
		logger := logging.Discard()
		reconciler := sync.NewReconciler(a.DB, analyzer, logger, a.Config.Location)
		runner := sync.NewRunner(a.DB, sync.NewOAuthConfig(a.Config), reconciler, logger, a.Config.HTTPTimeout, a.GoogleOptions...)
		return runner.Run(ctx, accounts)
	}
}

// WebCommand serves the web UI until interrupted.
func WebCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	addr := fs.String("addr", "localhost:8080", "Address to listen on")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := app.User(ctx)
	if err != nil {
		return err
	}

	server, err := web.NewServer(app.Service, user.ID, app.Logger, app.Config.Location)
	if err != nil {
		return err
	}
	app.printf("Serving touchbase at http://%s\n", *addr)
	return server.Start(ctx, *addr)
}
