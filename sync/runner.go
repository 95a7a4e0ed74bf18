// ABOUTME: Sequential sync of every linked Google account
// ABOUTME: Imports calendar, gmail, and optionally contacts, records sync state and runs, then reconciles
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

// AccountResult is the outcome of syncing one account.
type AccountResult struct {
	Account   models.SocialAccount
	Calendar  Stats
	Gmail     Stats
	Contacts  Stats
	Reconcile ReconcileStats
	Err       error
}

type Runner struct {
	db         *sql.DB
	oauth      *oauth2.Config
	reconciler *Reconciler
	logger     *log.Logger
	timeout    time.Duration
	opts       []option.ClientOption
	contacts   bool
	now        func() time.Time
}

// NewRunner builds a runner; opts are passed to every Google service it creates.
// A nil reconciler only imports raw records.
func NewRunner(database *sql.DB, conf *oauth2.Config, reconciler *Reconciler, logger *log.Logger, timeout time.Duration, opts ...option.ClientOption) *Runner {
	return &Runner{
		db:         database,
		oauth:      conf,
		reconciler: reconciler,
		logger:     logger,
		timeout:    timeout,
		opts:       opts,
		now:        time.Now,
	}
}

// WithContacts also imports Google Contacts before reconciling, so new
// participants pick up real names.
func (r *Runner) WithContacts(enabled bool) *Runner {
	r.contacts = enabled
	return r
}

// Run syncs accounts one after another. A failing account is aborted and the
// next one still runs; all failures are returned joined.
func (r *Runner) Run(ctx context.Context, accounts []models.SocialAccount) ([]AccountResult, error) {
	results := make([]AccountResult, 0, len(accounts))
	var errs []error
	for _, acct := range accounts {
		res := r.syncAccount(ctx, acct)
		if res.Err != nil {
			r.logger.Error("account sync failed", "account", acct.UID, "err", res.Err)
			errs = append(errs, res.Err)
		}
		results = append(results, res)
	}
	return results, errors.Join(errs...)
}

func (r *Runner) syncAccount(ctx context.Context, acct models.SocialAccount) AccountResult {
	res := AccountResult{Account: acct}
	if acct.RefreshToken == "" {
		r.logger.Warn("refresh token missing, account needs to be linked again", "account", acct.UID)
	}

	creds := NewCredentials(ctx, r.oauth, AccountToken(&acct), r.timeout)
	persist := func(ctx context.Context, token *oauth2.Token) error {
		ApplyToken(&acct, token)
		if err := db.UpdateAccountToken(ctx, r.db, acct.ID, acct.AccessToken, acct.TokenExpiry); err != nil {
			return err
		}
		r.logger.Info("credentials changed: updated", "account", acct.UID)
		return nil
	}
	client := creds.HTTPClient()

	calSvc, err := NewCalendarClient(ctx, client, r.opts...)
	if err != nil {
		res.Err = err
		return res
	}
	calendarImporter := NewCalendarImporter(r.db, calSvc, creds, persist, r.logger)
	res.Calendar, err = r.syncService(ctx, &acct, models.ServiceCalendar, calendarImporter.Import)
	if err != nil {
		res.Err = err
		return res
	}

	gmailSvc, err := NewGmailClient(ctx, client, r.opts...)
	if err != nil {
		res.Err = err
		return res
	}
	gmailImporter := NewGmailImporter(r.db, gmailSvc, creds, persist, r.logger)
	res.Gmail, err = r.syncService(ctx, &acct, models.ServiceGmail, gmailImporter.Import)
	if err != nil {
		res.Err = err
		return res
	}

	if r.contacts {
		peopleSvc, err := NewPeopleClient(ctx, client, r.opts...)
		if err != nil {
			res.Err = err
			return res
		}
		contactsImporter := NewContactsImporter(r.db, peopleSvc, creds, persist, r.logger)
		res.Contacts, err = r.syncService(ctx, &acct, models.ServiceContacts, contactsImporter.Import)
		if err != nil {
			res.Err = err
			return res
		}
	}

	if r.reconciler != nil {
		res.Reconcile, err = r.reconciler.ReconcileAccount(ctx, &acct)
		if err != nil {
			res.Err = fmt.Errorf("failed to reconcile %s: %w", acct.UID, err)
		}
	}
	return res
}

type importFunc func(ctx context.Context, acct *models.SocialAccount, startPage string) (Stats, error)

// resumable reports whether a failed pass of service may restart at the failed page.
// Calendar passes always start over so every stored event is rewritten.
func resumable(service string) bool {
	return service != models.ServiceCalendar
}

// syncService runs one importer, resuming from the page a previous failed pass stopped at.
// A resume token that fails before yielding a page is dropped so the next pass starts over.
func (r *Runner) syncService(ctx context.Context, acct *models.SocialAccount, service string, run importFunc) (Stats, error) {
	state, err := db.GetSyncState(ctx, r.db, acct.ID, service)
	if err != nil {
		return Stats{}, err
	}
	var start string
	if resumable(service) && state != nil && state.ResumeToken != "" {
		start = state.ResumeToken
		r.logger.Info("resuming sync", "account", acct.UID, "service", service)
	}

	if err := db.UpdateSyncStatus(ctx, r.db, acct.ID, service, models.SyncStatusSyncing, nil); err != nil {
		return Stats{}, err
	}
	record, err := db.StartSyncRun(ctx, r.db, acct.ID, service, r.now())
	if err != nil {
		return Stats{}, err
	}

	stats, importErr := run(ctx, acct, start)
	record.ItemsFetched = stats.Fetched
	record.ItemsStored = stats.Stored
	if err := db.FinishSyncRun(ctx, r.db, record, importErr); err != nil {
		r.logger.Error("failed to record sync run", "account", acct.UID, "service", service, "err", err)
	}

	if importErr != nil {
		msg := importErr.Error()
		if err := db.UpdateSyncStatus(ctx, r.db, acct.ID, service, models.SyncStatusError, &msg); err != nil {
			r.logger.Error("failed to record sync error", "account", acct.UID, "service", service, "err", err)
		}
		resume := stats.Resume
		if !resumable(service) || (start != "" && stats.Pages == 0) {
			if start != "" {
				r.logger.Warn("dropping resume token", "account", acct.UID, "service", service)
			}
			resume = ""
		}
		if err := db.SetResumeToken(ctx, r.db, acct.ID, service, resume); err != nil {
			r.logger.Error("failed to record resume token", "account", acct.UID, "service", service, "err", err)
		}
		return stats, fmt.Errorf("failed to sync %s for %s: %w", service, acct.UID, importErr)
	}

	if err := db.MarkSyncComplete(ctx, r.db, acct.ID, service, r.now()); err != nil {
		return stats, err
	}
	r.logger.Info("sync complete", "account", acct.UID, "service", service,
		"pages", stats.Pages, "stored", stats.Stored, "skipped", stats.Skipped)
	return stats, nil
}
