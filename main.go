// ABOUTME: Entry point for the touchbase CLI, MCP server, TUI, and web UI
// ABOUTME: Loads configuration, opens the database, and routes to subcommands
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"

	"github.com/harperreed/touchbase/cli"
	"github.com/harperreed/touchbase/config"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/logging"
)

// command runs one subcommand.
type command struct {
	run      func(ctx context.Context, app *cli.App, args []string) error
	requires config.Requirements
}

// plain adapts commands that do not take a context.
func plain(f func(*cli.App, []string) error) func(context.Context, *cli.App, []string) error {
	return func(_ context.Context, app *cli.App, args []string) error {
		return f(app, args)
	}
}

// commands maps "group subcommand" (or a bare group) to its handler.
var commands = map[string]command{
	"users add":  {run: plain(cli.AddUserCommand)},
	"users list": {run: plain(cli.ListUsersCommand)},

	"contacts add":          {run: plain(cli.AddContactCommand)},
	"contacts list":         {run: plain(cli.ListContactsCommand)},
	"contacts show":         {run: plain(cli.ShowContactCommand)},
	"contacts update":       {run: plain(cli.UpdateContactCommand)},
	"contacts delete":       {run: plain(cli.DeleteContactCommand)},
	"contacts add-email":    {run: plain(cli.AddEmailCommand)},
	"contacts remove-email": {run: plain(cli.RemoveEmailCommand)},
	"contacts add-phone":    {run: plain(cli.AddPhoneCommand)},
	"contacts touch":        {run: plain(cli.TouchCommand)},

	"interactions log":     {run: plain(cli.LogInteractionCommand)},
	"interactions list":    {run: plain(cli.ListInteractionsCommand)},
	"interactions show":    {run: plain(cli.ShowInteractionCommand)},
	"interactions delete":  {run: plain(cli.DeleteInteractionCommand)},
	"interactions analyze": {run: plain(cli.AnalyzeCommand), requires: config.Requirements{Analysis: true}},

	"followups list":  {run: plain(cli.FollowupListCommand)},
	"followups stats": {run: plain(cli.FollowupStatsCommand)},
	"dashboard":       {run: plain(cli.VizDashboardCommand)},

	"sync init":   {run: cli.SyncInitCommand, requires: config.Requirements{Google: true}},
	"sync run":    {run: cli.SyncRunCommand, requires: config.Requirements{Google: true}},
	"sync status": {run: cli.SyncStatusCommand},

	"viz contacts": {run: plain(cli.VizGraphContactsCommand)},
	"viz all":      {run: plain(cli.VizGraphAllCommand)},

	"mcp": {run: func(ctx context.Context, app *cli.App, _ []string) error { return cli.MCPCommand(ctx, app) }},
	"tui": {run: cli.TUICommand},
	"web": {run: cli.WebCommand},
}

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/touchbase/touchbase.db)")
	envFile := flag.String("env", ".env", "Environment file to load")
	initOnly := flag.Bool("init", false, "Initialize database and exit")
	flag.Usage = printUsage

	// Parse global flags; subcommands parse the rest
	_ = flag.CommandLine.Parse(os.Args[1:])

	if *showVersion {
		fmt.Printf("touchbase version %s\n", cli.Version)
		os.Exit(0)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatal("failed to load configuration", "err", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	logger := logging.New(cfg.LogLevel, os.Stderr)

	args := flag.Args()
	if len(args) == 0 && !*initOnly {
		printUsage()
		os.Exit(0)
	}

	var cmd command
	var cmdArgs []string
	if !*initOnly {
		var ok bool
		cmd, cmdArgs, ok = lookup(args)
		if !ok {
			fmt.Printf("Unknown command: %s\n\n", args[0])
			printUsage()
			os.Exit(1)
		}

		var missing *config.MissingSettingsError
		if err := cfg.Validate(cmd.requires); errors.As(err, &missing) {
			logger.Fatal(missing.Error())
		}
	}

	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", "path", cfg.DBPath, "err", err)
	}
	defer func() { _ = database.Close() }()
	logger.Debug("database opened", "path", cfg.DBPath)

	if *initOnly {
		logger.Info("database initialized", "path", cfg.DBPath)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := cli.NewApp(cfg, database, logger)
	if err := cmd.run(ctx, app, cmdArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		// Fatal skips deferred calls
		_ = database.Close()
		logger.Fatal("command failed", "err", err)
	}
}

// lookup finds the handler for "group sub" first, then for a bare group.
func lookup(args []string) (command, []string, bool) {
	if len(args) >= 2 {
		if cmd, ok := commands[args[0]+" "+args[1]]; ok {
			return cmd, args[2:], true
		}
	}
	// viz graph contacts|all is the long form of viz contacts|all
	if len(args) >= 3 && args[0] == "viz" && args[1] == "graph" {
		if cmd, ok := commands["viz "+args[2]]; ok {
			return cmd, args[3:], true
		}
	}
	cmd, ok := commands[args[0]]
	return cmd, args[1:], ok
}

func printUsage() {
	fmt.Printf(`touchbase v%s - Personal CRM that keeps you in touch

USAGE:
  touchbase [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --db-path <path>       Database path (default: ~/.local/share/touchbase/touchbase.db)
  --env <file>           Environment file to load (default: .env)
  --init                 Initialize database and exit

USERS:
  touchbase users add --email <email> [--name <name>]
  touchbase users list

CONTACTS:
  touchbase contacts add          Add a contact
    --name <name>                   Contact name (required)
    --frequency <days>              Stay in touch every N days
    --email <email>                 Email address (repeatable)
    --phone <phone>                 Phone number (repeatable)
    --description <text>            Notes about the contact
  touchbase contacts list         List contacts by status
    --status <status>               out_of_touch, in_touch, or hidden
    --query <text>                  Search by name or email
  touchbase contacts show <id>
  touchbase contacts update [flags] <id>
  touchbase contacts delete <id>
  touchbase contacts add-email <id> <email>
  touchbase contacts remove-email <email-id>
  touchbase contacts add-phone <id> <phone>
  touchbase contacts touch <id>   Record that you talked today

INTERACTIONS:
  touchbase interactions log      Log an interaction
    --title <title>                 Title (required)
    --contact <id>                  Participant (repeatable)
    --when <date>                   YYYY-MM-DD or RFC3339 (default: now)
    --type <type>                   email, meeting, touchpoint, or note
  touchbase interactions list
  touchbase interactions show <id>
  touchbase interactions delete <id>
  touchbase interactions analyze [--limit <n>]   Analyze interactions with Claude

FOLLOW-UPS:
  touchbase followups list [--overdue-only] [--limit <n>]
  touchbase followups stats
  touchbase dashboard

GOOGLE SYNC:
  touchbase sync init [--reuse]   Link a Google account
  touchbase sync run [--mine] [--contacts]
                                  Import Gmail, Calendar, and Google Contacts
  touchbase sync status           Show sync state and recent runs

VISUALIZATION:
  touchbase viz graph contacts [id] [--output <file>]
  touchbase viz graph all [--output <file>]

SERVERS:
  touchbase mcp                   Start MCP server over stdio
  touchbase tui                   Interactive terminal dashboard
  touchbase web [--addr <addr>]   Web dashboard (default: localhost:8080)

ENVIRONMENT:
  TOUCHBASE_USER                  Email of the user commands act for
  ANTHROPIC_API_KEY               Enables interaction analysis
  GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET   Required for sync

`, cli.Version)
}
