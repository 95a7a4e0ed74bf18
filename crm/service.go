// ABOUTME: Application service shared by the CLI, MCP, web, and terminal surfaces
// ABOUTME: Owns input validation and the explicit analysis call after participant changes
package crm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/analysis"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

var validate = validator.New()

// ErrNoUser is returned when no user can be chosen for a single-user surface.
var ErrNoUser = errors.New("no user configured")

// Analyzer analyzes an interaction after its participants changed.
type Analyzer interface {
	AnalyzeInteraction(ctx context.Context, userID, interactionID uuid.UUID) (*analysis.Result, error)
}

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s", strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return e.Err }

type Service struct {
	db       *sql.DB
	analyzer Analyzer
	logger   *log.Logger
	now      func() time.Time
}

// NewService wires the service; a nil analyzer leaves interactions unanalyzed.
func NewService(database *sql.DB, analyzer Analyzer, logger *log.Logger) *Service {
	return &Service{db: database, analyzer: analyzer, logger: logger, now: time.Now}
}

func (s *Service) DB() *sql.DB {
	return s.db
}

// Now is the clock used for urgency and listings.
func (s *Service) Now() time.Time {
	return s.now()
}

func validateInput(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return &ValidationError{Fields: fields, Err: err}
}

// ResolveUser picks the acting user: the one with email if given, else the only user.
func (s *Service) ResolveUser(ctx context.Context, email string) (*models.User, error) {
	if email != "" {
		return db.GetOrCreateUser(ctx, s.db, email, "")
	}
	users, err := db.ListUsers(ctx, s.db)
	if err != nil {
		return nil, err
	}
	switch len(users) {
	case 0:
		return nil, fmt.Errorf("%w: add one with 'touchbase users add'", ErrNoUser)
	case 1:
		return &users[0], nil
	default:
		return nil, fmt.Errorf("%w: %d users exist, set TOUCHBASE_USER", ErrNoUser, len(users))
	}
}
