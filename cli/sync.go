// ABOUTME: Google sync CLI commands
// ABOUTME: Links accounts through OAuth, runs Gmail and Calendar sync, and reports sync state
package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os/exec"
	"runtime"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/harperreed/touchbase/config"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
	"github.com/harperreed/touchbase/sync"
)

// SyncInitCommand runs the OAuth consent flow and links the Google account to a user.
func SyncInitCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	reuse := fs.Bool("reuse", false, "Link the cached token instead of opening the browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	conf := sync.NewOAuthConfig(app.Config)

	var token *oauth2.Token
	var err error
	if *reuse {
		token, err = sync.LoadToken(config.TokenPath())
		if err != nil {
			return fmt.Errorf("no cached token found, run 'touchbase sync init' without --reuse: %w", err)
		}
	} else {
		token, err = authorize(ctx, app, conf)
		if err != nil {
			return err
		}
		if err := sync.SaveToken(config.TokenPath(), token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
	}

	creds := sync.NewCredentials(ctx, conf, token, app.Config.HTTPTimeout)
	gmailSvc, err := sync.NewGmailClient(ctx, creds.HTTPClient(), app.GoogleOptions...)
	if err != nil {
		return err
	}
	email, err := sync.ProfileEmail(ctx, gmailSvc)
	if err != nil {
		return err
	}

	// The account belongs to the configured user, or to its own address.
	owner := app.Config.UserEmail
	if owner == "" {
		owner = email
	}
	user, err := db.GetOrCreateUser(ctx, app.DB, owner, "")
	if err != nil {
		return err
	}

	acct := &models.SocialAccount{UserID: user.ID, Provider: models.ProviderGoogle, UID: email}
	if current, err := creds.Token(); err == nil {
		token = current
	}
	sync.ApplyToken(acct, token)
	if err := db.UpsertSocialAccount(ctx, app.DB, acct); err != nil {
		return fmt.Errorf("failed to link account: %w", err)
	}

	app.printf("\n✓ Authenticated as %s\n", email)
	app.printf("✓ Linked to user %s\n", user.Email)
	if acct.RefreshToken == "" {
		app.printf("! No refresh token was issued; revoke access in your Google account and run init again\n")
	}
	app.printf("\nReady to sync! Run 'touchbase sync run' to import mail and calendar.\n")
	return nil
}

// authorize serves the redirect URL locally and waits for the consent callback.
func authorize(ctx context.Context, app *App, conf *oauth2.Config) (*oauth2.Token, error) {
	redirect, err := url.Parse(conf.RedirectURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect URL: %w", err)
	}

	state, err := randomState()
	if err != nil {
		return nil, err
	}

	callbackChan := make(chan *oauth2.Token, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("state") != state {
			http.Error(w, "State mismatch", http.StatusBadRequest)
			errChan <- fmt.Errorf("state mismatch in OAuth callback")
			return
		}
		if msg := r.URL.Query().Get("error"); msg != "" {
			http.Error(w, "Authorization denied", http.StatusBadRequest)
			errChan <- fmt.Errorf("authorization denied: %s", msg)
			return
		}
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "Missing code", http.StatusBadRequest)
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		token, err := sync.Exchange(r.Context(), conf, code, app.Config.HTTPTimeout)
		if err != nil {
			http.Error(w, "Token exchange failed", http.StatusInternalServerError)
			errChan <- err
			return
		}

		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
		callbackChan <- token
	})

	listener, err := net.Listen("tcp", redirect.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", redirect.Host, err)
	}
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	authURL := sync.AuthURL(conf, state)
	app.printf("Opening browser for Google OAuth...\n")
	app.printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-callbackChan:
		return token, nil
	case err := <-errChan:
		return nil, fmt.Errorf("OAuth flow failed: %w", err)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SyncRunCommand syncs every linked Google account, or only the current user's with --mine.
func SyncRunCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	mine := fs.Bool("mine", false, "Only sync accounts of the current user")
	contacts := fs.Bool("contacts", false, "Also import Google Contacts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var userID *uuid.UUID
	if *mine {
		user, err := app.User(ctx)
		if err != nil {
			return err
		}
		userID = &user.ID
	}

	accounts, err := db.ListSocialAccounts(ctx, app.DB, models.ProviderGoogle, userID)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		app.printf("No linked Google accounts. Run 'touchbase sync init' first.\n")
		return nil
	}

	var analyzer sync.InteractionAnalyzer
	if app.Analyzer != nil {
		analyzer = app.Analyzer
	}
	reconciler := sync.NewReconciler(app.DB, analyzer, app.Logger, app.Config.Location)
	runner := sync.NewRunner(app.DB, sync.NewOAuthConfig(app.Config), reconciler, app.Logger, app.Config.HTTPTimeout, app.GoogleOptions...).
		WithContacts(*contacts)

	results, runErr := runner.Run(ctx, accounts)
	for _, res := range results {
		if res.Err != nil {
			app.printf("✗ %s: %v\n", res.Account.UID, res.Err)
			continue
		}
		app.printf("✓ %s\n", res.Account.UID)
		app.printf("  Calendar: %d fetched, %d stored\n", res.Calendar.Fetched, res.Calendar.Stored)
		app.printf("  Gmail:    %d fetched, %d stored, %d already known\n", res.Gmail.Fetched, res.Gmail.Stored, res.Gmail.Skipped)
		if res.Gmail.Failed > 0 {
			app.printf("  Gmail:    %d messages could not be fetched\n", res.Gmail.Failed)
		}
		if *contacts {
			app.printf("  Contacts: %d fetched, %d updated\n", res.Contacts.Fetched, res.Contacts.Stored)
		}
		r := res.Reconcile
		app.printf("  Interactions: %d from email, %d meetings created, %d updated, %d removed\n",
			r.EmailsCreated, r.EventsCreated, r.EventsUpdated, r.EventsDeleted)
		if r.EmailsFailed > 0 || r.EventsFailed > 0 {
			app.printf("  Skipped records: %d emails, %d events (see log)\n", r.EmailsFailed, r.EventsFailed)
		}
		if r.ContactsCreated > 0 {
			app.printf("  New contacts: %d\n", r.ContactsCreated)
		}
		if r.AnalysesDone > 0 || r.AnalysesFailed > 0 {
			app.printf("  Analyses: %d done, %d failed\n", r.AnalysesDone, r.AnalysesFailed)
		}
	}
	return runErr
}

// SyncStatusCommand shows per-account sync state and the latest runs.
func SyncStatusCommand(ctx context.Context, app *App, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	limit := fs.Int("runs", 10, "Number of recent runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	states, err := db.GetAllSyncStates(ctx, app.DB)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		app.printf("No sync data found. Run 'touchbase sync init' and 'touchbase sync run' first.\n")
		return nil
	}

	accounts, err := db.ListSocialAccounts(ctx, app.DB, models.ProviderGoogle, nil)
	if err != nil {
		return err
	}
	names := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.UID
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ACCOUNT\tSERVICE\tSTATUS\tLAST SYNC\tERROR")
	_, _ = fmt.Fprintln(w, "-------\t-------\t------\t---------\t-----")
	for _, st := range states {
		last := "never"
		if st.LastSyncTime != nil {
			last = st.LastSyncTime.In(app.Config.Location).Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", names[st.AccountID], st.Service, st.Status, last, st.ErrorMessage)
	}
	_ = w.Flush()

	runs, err := db.ListSyncRuns(ctx, app.DB, *limit)
	if err != nil {
		return err
	}
	if len(runs) > 0 {
		app.printf("\nRECENT RUNS\n")
		w = tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
		for _, run := range runs {
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%d fetched\t%d stored\n",
				run.StartedAt.In(app.Config.Location).Format("2006-01-02 15:04"),
				names[run.AccountID], run.Service, run.Status, run.ItemsFetched, run.ItemsStored)
		}
		_ = w.Flush()
	}
	return nil
}

// openBrowser attempts to open URL in default browser
func openBrowser(target string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{target}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", target}
	default:
		cmd = "xdg-open"
		args = []string{target}
	}

	command := exec.Command(cmd, args...)
	return command.Start()
}
