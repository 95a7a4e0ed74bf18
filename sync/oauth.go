// ABOUTME: OAuth configuration and token management for Google APIs
// ABOUTME: Handles the consent flow, token caching at XDG paths, and account tokens
package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/harperreed/touchbase/config"
	"github.com/harperreed/touchbase/models"
)

// Scopes requested during the consent flow.
var Scopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/contacts.readonly",
	"https://www.googleapis.com/auth/gmail.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

// NewOAuthConfig creates OAuth2 config for Google APIs from the runtime configuration.
func NewOAuthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       Scopes,
		Endpoint:     google.Endpoint,
	}
}

// AuthURL is the consent page; offline access yields a refresh token.
func AuthURL(conf *oauth2.Config, state string) string {
	return conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// Exchange trades an authorization code for a token using a client with a finite timeout.
func Exchange(ctx context.Context, conf *oauth2.Config, code string, timeout time.Duration) (*oauth2.Token, error) {
	ctx = withHTTPTimeout(ctx, timeout)
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}

// SaveToken caches an OAuth token with restricted permissions.
func SaveToken(path string, token *oauth2.Token) error {
	if path == "" {
		path = config.TokenPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	return nil
}

// LoadToken reads a cached OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		path = config.TokenPath()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &token, nil
}

// AccountToken rebuilds the oauth2 token stored on a social account.
func AccountToken(acct *models.SocialAccount) *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  acct.AccessToken,
		RefreshToken: acct.RefreshToken,
		TokenType:    "Bearer",
	}
	if acct.TokenExpiry != nil {
		t.Expiry = *acct.TokenExpiry
	}
	return t
}

// ApplyToken copies a token onto an account before it is stored.
func ApplyToken(acct *models.SocialAccount, token *oauth2.Token) {
	acct.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		acct.RefreshToken = token.RefreshToken
	}
	acct.TokenExpiry = nil
	if !token.Expiry.IsZero() {
		exp := token.Expiry.UTC()
		acct.TokenExpiry = &exp
	}
}
