// ABOUTME: Gmail importer storing raw message metadata
// ABOUTME: Pages through messages.list and fetches metadata for ids not yet stored
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/metrics"
	"github.com/harperreed/touchbase/models"
)

const maxGmailResults = 500 // Gmail API max per page

// Stats summarizes one import pass.
type Stats struct {
	Pages   int
	Fetched int
	Stored  int
	Skipped int
	// Failed counts records the provider refused; they are retried on the next pass.
	Failed int
	// Resume is the page token to restart from after a failure.
	Resume string
}

type GmailImporter struct {
	db      *sql.DB
	svc     *gmail.Service
	creds   *Credentials
	persist TokenPersister
	logger  *log.Logger
}

func NewGmailImporter(database *sql.DB, svc *gmail.Service, creds *Credentials, persist TokenPersister, logger *log.Logger) *GmailImporter {
	return &GmailImporter{db: database, svc: svc, creds: creds, persist: persist, logger: logger}
}

// Import stores every message of the mailbox not already known. Each row commits on
// its own, so a failed page leaves earlier pages in place.
func (g *GmailImporter) Import(ctx context.Context, acct *models.SocialAccount, startPage string) (Stats, error) {
	var stats Stats
	pager := NewPager(g.listPage, startPage)

	for messages, err := range pager.Pages(ctx) {
		if err != nil {
			metrics.SyncPagesTotal.WithLabelValues(models.ServiceGmail, metrics.OutcomeError).Inc()
			stats.Resume = pager.Resume()
			return stats, fmt.Errorf("failed to list gmail messages: %w", err)
		}
		metrics.SyncPagesTotal.WithLabelValues(models.ServiceGmail, metrics.OutcomeOK).Inc()
		stats.Pages++

		for _, m := range messages {
			stored, err := g.importMessage(ctx, acct, m.Id)
			if err != nil {
				if !isRecordError(ctx, err) {
					stats.Resume = pager.Resume()
					return stats, err
				}
				stats.Failed++
				metrics.SyncItemsTotal.WithLabelValues(models.ServiceGmail, metrics.OutcomeFailed).Inc()
				g.logger.Warn("skipping gmail message", "account", acct.UID, "message", m.Id, "error", err)
				continue
			}
			if stored {
				stats.Fetched++
				stats.Stored++
				metrics.SyncItemsTotal.WithLabelValues(models.ServiceGmail, metrics.OutcomeStored).Inc()
			} else {
				stats.Skipped++
				metrics.SyncItemsTotal.WithLabelValues(models.ServiceGmail, metrics.OutcomeSkipped).Inc()
			}
		}
		g.logger.Debug("gmail page stored", "account", acct.UID, "page", stats.Pages, "messages", len(messages))
	}
	return stats, nil
}

func (g *GmailImporter) listPage(ctx context.Context, token string) ([]*gmail.Message, string, error) {
	var resp *gmail.ListMessagesResponse
	err := g.creds.Track(ctx, g.persist, func() error {
		call := g.svc.Users.Messages.List("me").MaxResults(maxGmailResults).Context(ctx)
		if token != "" {
			call = call.PageToken(token)
		}
		var err error
		resp, err = call.Do()
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return resp.Messages, resp.NextPageToken, nil
}

// importMessage fetches and stores one message; known ids are never refetched.
func (g *GmailImporter) importMessage(ctx context.Context, acct *models.SocialAccount, id string) (bool, error) {
	exists, err := db.GoogleEmailExists(ctx, g.db, id)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	var msg *gmail.Message
	err = g.creds.Track(ctx, g.persist, func() error {
		var err error
		msg, err = g.svc.Users.Messages.Get("me", id).Format("metadata").Context(ctx).Do()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to get gmail message %s: %w", id, err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return false, fmt.Errorf("failed to encode gmail message %s: %w", id, err)
	}
	return db.InsertEmailIfAbsent(ctx, g.db, acct.ID, msg.Id, data)
}

// isRecordError reports whether err concerns a single record, such as a message deleted
// between list and get. Auth, token storage and transport failures are not.
func isRecordError(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, ErrPersistToken) {
		return false
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code != http.StatusUnauthorized && apiErr.Code != http.StatusForbidden
}
