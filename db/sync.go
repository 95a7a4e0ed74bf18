// ABOUTME: Database operations for sync_state and sync_runs tables
// ABOUTME: Tracks per-account sync status and keeps an audit row for every pass
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
	"github.com/oklog/ulid/v2"
)

// GetSyncState retrieves the sync state of one account and service.
func GetSyncState(ctx context.Context, db *sql.DB, accountID uuid.UUID, service string) (*models.SyncState, error) {
	state, err := scanSyncState(db.QueryRowContext(ctx, `
		SELECT account_id, service, last_sync_time, status, error_message, resume_token, created_at, updated_at
		FROM sync_state WHERE account_id = ? AND service = ?
	`, accountID.String(), service))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state, nil
}

func scanSyncState(row interface{ Scan(...any) error }) (*models.SyncState, error) {
	var state models.SyncState
	var lastSyncTime sql.NullTime
	var errorMessage, resumeToken sql.NullString
	if err := row.Scan(&state.AccountID, &state.Service, &lastSyncTime, &state.Status, &errorMessage, &resumeToken, &state.CreatedAt, &state.UpdatedAt); err != nil {
		return nil, err
	}
	state.LastSyncTime = timePtr(lastSyncTime)
	state.ErrorMessage = errorMessage.String
	state.ResumeToken = resumeToken.String
	return &state, nil
}

// UpdateSyncStatus records status changes; a nil error message clears the last error.
func UpdateSyncStatus(ctx context.Context, db *sql.DB, accountID uuid.UUID, service, status string, errorMsg *string) error {
	var errorMsgVal sql.NullString
	if errorMsg != nil {
		errorMsgVal = sql.NullString{String: *errorMsg, Valid: true}
	}
	now := time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (account_id, service, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(account_id, service) DO UPDATE SET
			status = excluded.status,
			error_message = excluded.error_message,
			updated_at = excluded.updated_at
	`, accountID.String(), service, status, errorMsgVal, now, now)
	if err != nil {
		return fmt.Errorf("failed to update sync status: %w", err)
	}
	return nil
}

// MarkSyncComplete sets the account's service back to idle and stamps the sync time.
func MarkSyncComplete(ctx context.Context, db *sql.DB, accountID uuid.UUID, service string, at time.Time) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_state (account_id, service, last_sync_time, status, created_at, updated_at)
		VALUES (?, ?, ?, 'idle', ?, ?)
		ON CONFLICT(account_id, service) DO UPDATE SET
			last_sync_time = excluded.last_sync_time,
			status = 'idle',
			error_message = NULL,
			resume_token = NULL,
			updated_at = excluded.updated_at
	`, accountID.String(), service, at.UTC(), at.UTC(), at.UTC())
	if err != nil {
		return fmt.Errorf("failed to mark sync complete: %w", err)
	}
	return nil
}

// SetResumeToken remembers the page a failed pass should restart from; empty clears it.
func SetResumeToken(ctx context.Context, db *sql.DB, accountID uuid.UUID, service, token string) error {
	var tokenVal sql.NullString
	if token != "" {
		tokenVal = sql.NullString{String: token, Valid: true}
	}
	res, err := db.ExecContext(ctx, `
		UPDATE sync_state SET resume_token = ?, updated_at = ? WHERE account_id = ? AND service = ?
	`, tokenVal, time.Now().UTC(), accountID.String(), service)
	if err != nil {
		return fmt.Errorf("failed to set resume token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAllSyncStates retrieves every recorded sync state.
func GetAllSyncStates(ctx context.Context, db *sql.DB) ([]models.SyncState, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT account_id, service, last_sync_time, status, error_message, resume_token, created_at, updated_at
		FROM sync_state
		ORDER BY account_id, service
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync states: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var states []models.SyncState
	for rows.Next() {
		state, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync state: %w", err)
		}
		states = append(states, *state)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync states: %w", err)
	}
	return states, nil
}

// StartSyncRun opens an audit row; ids are ULIDs so they sort by start time.
func StartSyncRun(ctx context.Context, db *sql.DB, accountID uuid.UUID, service string, startedAt time.Time) (*models.SyncRun, error) {
	run := &models.SyncRun{
		ID:        ulid.MustNew(ulid.Timestamp(startedAt), ulid.DefaultEntropy()).String(),
		AccountID: accountID,
		Service:   service,
		StartedAt: startedAt.UTC(),
		Status:    models.SyncStatusSyncing,
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, account_id, service, started_at, status) VALUES (?, ?, ?, ?, ?)
	`, run.ID, accountID.String(), service, run.StartedAt, run.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to start sync run: %w", err)
	}
	return run, nil
}

// FinishSyncRun closes the audit row with counts and the failure, if any.
func FinishSyncRun(ctx context.Context, db *sql.DB, run *models.SyncRun, runErr error) error {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = models.SyncStatusIdle
	var errorMsg sql.NullString
	if runErr != nil {
		run.Status = models.SyncStatusError
		run.ErrorMessage = runErr.Error()
		errorMsg = sql.NullString{String: run.ErrorMessage, Valid: true}
	}

	_, err := db.ExecContext(ctx, `
		UPDATE sync_runs SET finished_at = ?, items_fetched = ?, items_stored = ?, status = ?, error_message = ?
		WHERE id = ?
	`, now, run.ItemsFetched, run.ItemsStored, run.Status, errorMsg, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish sync run: %w", err)
	}
	return nil
}

// ListSyncRuns returns the newest runs first.
func ListSyncRuns(ctx context.Context, db *sql.DB, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, account_id, service, started_at, finished_at, items_fetched, items_stored, status, error_message
		FROM sync_runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []models.SyncRun
	for rows.Next() {
		var r models.SyncRun
		var finished sql.NullTime
		var errorMsg sql.NullString
		if err := rows.Scan(&r.ID, &r.AccountID, &r.Service, &r.StartedAt, &finished, &r.ItemsFetched, &r.ItemsStored, &r.Status, &errorMsg); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		r.FinishedAt = timePtr(finished)
		r.ErrorMessage = errorMsg.String
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
