// ABOUTME: User CLI commands
// ABOUTME: Creates and lists the people whose contacts touchbase tracks
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/harperreed/touchbase/db"
)

// AddUserCommand creates a user, or reports the existing one with that email.
func AddUserCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("add-user", flag.ContinueOnError)
	email := fs.String("email", "", "Email address (required)")
	name := fs.String("name", "", "Display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" {
		return fmt.Errorf("--email is required")
	}

	user, err := db.GetOrCreateUser(context.Background(), app.DB, *email, *name)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	app.printf("✓ User: %s (ID: %s)\n", user.Email, user.ID)
	return nil
}

// ListUsersCommand lists every user.
func ListUsersCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	users, err := db.ListUsers(context.Background(), app.DB)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		app.printf("No users found. Add one with 'touchbase users add --email you@example.com'.\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tEMAIL\tNAME")
	_, _ = fmt.Fprintln(w, "--\t-----\t----")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", shortID(u.ID), u.Email, u.Name)
	}
	_ = w.Flush()

	app.printf("\nTotal: %d user(s)\n", len(users))
	return nil
}
