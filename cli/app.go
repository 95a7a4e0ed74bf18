// ABOUTME: Shared dependencies for CLI commands
// ABOUTME: Wires config, database, logger, and the crm service with an optional analyzer
package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/harperreed/touchbase/analysis"
	"github.com/harperreed/touchbase/config"
	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/models"
)

// App carries what every command needs.
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Logger   *log.Logger
	Service  *crm.Service
	Analyzer *analysis.Analyzer
	Out      io.Writer

	// GoogleOptions are passed to every Google API client.
	GoogleOptions []option.ClientOption
}

// NewApp builds the service; analysis is enabled only when an Anthropic key is configured.
func NewApp(cfg *config.Config, database *sql.DB, logger *log.Logger) *App {
	app := &App{Config: cfg, DB: database, Logger: logger, Out: os.Stdout}

	var analyzer crm.Analyzer
	if cfg.AnthropicAPIKey != "" {
		client := analysis.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnthropicModel, cfg.HTTPTimeout)
		app.Analyzer = analysis.NewAnalyzer(database, client, logger)
		analyzer = app.Analyzer
	}
	app.Service = crm.NewService(database, analyzer, logger)
	return app
}

// User resolves the user the command acts for.
func (a *App) User(ctx context.Context) (*models.User, error) {
	return a.Service.ResolveUser(ctx, a.Config.UserEmail)
}

func (a *App) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseIDArg parses flags and returns the single positional UUID argument.
func parseIDArg(fs *flag.FlagSet, args []string, what string) (uuid.UUID, error) {
	if err := fs.Parse(args); err != nil {
		return uuid.Nil, err
	}
	if fs.NArg() < 1 {
		return uuid.Nil, fmt.Errorf("%s ID is required", what)
	}
	id, err := uuid.Parse(fs.Arg(0))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}
