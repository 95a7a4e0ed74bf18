// ABOUTME: Google Calendar importer storing raw events
// ABOUTME: Pages through the primary calendar and overwrites known events
package sync

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"google.golang.org/api/calendar/v3"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/metrics"
	"github.com/harperreed/touchbase/models"
)

const maxCalendarResults = 2500 // Calendar API max per page

type CalendarImporter struct {
	db      *sql.DB
	svc     *calendar.Service
	creds   *Credentials
	persist TokenPersister
	logger  *log.Logger
}

func NewCalendarImporter(database *sql.DB, svc *calendar.Service, creds *Credentials, persist TokenPersister, logger *log.Logger) *CalendarImporter {
	return &CalendarImporter{db: database, svc: svc, creds: creds, persist: persist, logger: logger}
}

// Import upserts every event of the primary calendar. Events change upstream,
// so stored payloads are always replaced.
func (c *CalendarImporter) Import(ctx context.Context, acct *models.SocialAccount, startPage string) (Stats, error) {
	var stats Stats
	pager := NewPager(c.listPage, startPage)

	for events, err := range pager.Pages(ctx) {
		if err != nil {
			metrics.SyncPagesTotal.WithLabelValues(models.ServiceCalendar, metrics.OutcomeError).Inc()
			stats.Resume = pager.Resume()
			return stats, fmt.Errorf("failed to list calendar events: %w", err)
		}
		metrics.SyncPagesTotal.WithLabelValues(models.ServiceCalendar, metrics.OutcomeOK).Inc()
		stats.Pages++

		for _, ev := range events {
			stats.Fetched++
			data, err := json.Marshal(ev)
			if err != nil {
				stats.Resume = pager.Resume()
				return stats, fmt.Errorf("failed to encode calendar event %s: %w", ev.Id, err)
			}
			if _, err := db.UpsertCalendarEvent(ctx, c.db, acct.ID, ev.Id, data); err != nil {
				stats.Resume = pager.Resume()
				return stats, err
			}
			stats.Stored++
			metrics.SyncItemsTotal.WithLabelValues(models.ServiceCalendar, metrics.OutcomeStored).Inc()
		}
		c.logger.Debug("calendar page stored", "account", acct.UID, "page", stats.Pages, "events", len(events))
	}
	return stats, nil
}

func (c *CalendarImporter) listPage(ctx context.Context, token string) ([]*calendar.Event, string, error) {
	var resp *calendar.Events
	err := c.creds.Track(ctx, c.persist, func() error {
		call := c.svc.Events.List("primary").MaxResults(maxCalendarResults).Context(ctx)
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
	return resp.Items, resp.NextPageToken, nil
}
