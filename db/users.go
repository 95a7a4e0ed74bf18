// ABOUTME: User and linked social account database operations
// ABOUTME: Stores OAuth tokens per provider account and persists token rotation
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
)

func CreateUser(ctx context.Context, db *sql.DB, user *models.User) error {
	user.ID = uuid.New()
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = time.Now().UTC()

	_, err := db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)
	`, user.ID.String(), user.Email, user.Name, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE email = ?
	`, normalizeEmail(email)).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func GetUser(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx, `
		SELECT id, email, name, created_at FROM users WHERE id = ?
	`, id.String()).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// GetOrCreateUser returns the user with email, creating it when absent.
func GetOrCreateUser(ctx context.Context, db *sql.DB, email, name string) (*models.User, error) {
	u, err := GetUserByEmail(ctx, db, email)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	u = &models.User{Email: email, Name: name}
	if err := CreateUser(ctx, db, u); err != nil {
		return nil, err
	}
	return u, nil
}

func ListUsers(ctx context.Context, db *sql.DB) ([]models.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, email, name, created_at FROM users ORDER BY email`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpsertSocialAccount links an account, replacing tokens when (provider, uid) already exists.
func UpsertSocialAccount(ctx context.Context, db *sql.DB, acct *models.SocialAccount) error {
	now := time.Now().UTC()
	if acct.ID == uuid.Nil {
		acct.ID = uuid.New()
	}
	acct.UID = normalizeEmail(acct.UID)

	err := db.QueryRowContext(ctx, `
		INSERT INTO social_accounts (id, user_id, provider, uid, access_token, refresh_token, token_expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, uid) DO UPDATE SET
			user_id = excluded.user_id,
			access_token = excluded.access_token,
			refresh_token = CASE WHEN excluded.refresh_token = '' THEN social_accounts.refresh_token ELSE excluded.refresh_token END,
			token_expiry = excluded.token_expiry,
			updated_at = excluded.updated_at
		RETURNING id
	`, acct.ID.String(), acct.UserID.String(), acct.Provider, acct.UID, acct.AccessToken, acct.RefreshToken,
		nullableTime(acct.TokenExpiry), now, now).Scan(&acct.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert social account: %w", err)
	}

	stored, err := GetSocialAccount(ctx, db, acct.ID)
	if err != nil {
		return err
	}
	*acct = *stored
	return nil
}

// UpdateAccountToken persists a rotated access token and its expiry.
func UpdateAccountToken(ctx context.Context, db *sql.DB, accountID uuid.UUID, accessToken string, expiry *time.Time) error {
	res, err := db.ExecContext(ctx, `
		UPDATE social_accounts SET access_token = ?, token_expiry = ?, updated_at = ? WHERE id = ?
	`, accessToken, nullableTime(expiry), time.Now().UTC(), accountID.String())
	if err != nil {
		return fmt.Errorf("failed to update account token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

const socialAccountColumns = `id, user_id, provider, uid, access_token, refresh_token, token_expiry, created_at, updated_at`

func scanSocialAccount(row interface{ Scan(...any) error }) (*models.SocialAccount, error) {
	var a models.SocialAccount
	var expiry sql.NullTime
	if err := row.Scan(&a.ID, &a.UserID, &a.Provider, &a.UID, &a.AccessToken, &a.RefreshToken, &expiry, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.TokenExpiry = timePtr(expiry)
	return &a, nil
}

// ListSocialAccounts returns the accounts of one provider, optionally limited to one user.
func ListSocialAccounts(ctx context.Context, db *sql.DB, provider string, userID *uuid.UUID) ([]models.SocialAccount, error) {
	query := `SELECT ` + socialAccountColumns + ` FROM social_accounts WHERE provider = ?`
	args := []any{provider}
	if userID != nil {
		query += ` AND user_id = ?`
		args = append(args, userID.String())
	}
	query += ` ORDER BY uid`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list social accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []models.SocialAccount
	for rows.Next() {
		a, err := scanSocialAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan social account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func GetSocialAccount(ctx context.Context, db *sql.DB, id uuid.UUID) (*models.SocialAccount, error) {
	a, err := scanSocialAccount(db.QueryRowContext(ctx,
		`SELECT `+socialAccountColumns+` FROM social_accounts WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get social account: %w", err)
	}
	return a, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
