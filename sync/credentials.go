// ABOUTME: Token source wrapper that notices access token rotation during sync
// ABOUTME: Persists refreshed tokens as soon as a request produced a new one
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/touchbase/metrics"
)

// ErrPersistToken marks a rotated token that could not be stored.
var ErrPersistToken = errors.New("failed to persist rotated token")

// TokenPersister stores a rotated token for the account being synced.
type TokenPersister func(ctx context.Context, token *oauth2.Token) error

// Credentials records the token handed to the most recent request.
type Credentials struct {
	src     oauth2.TokenSource
	last    *oauth2.Token
	timeout time.Duration
}

// NewCredentials refreshes through conf when token expires; refresh calls share the timeout.
func NewCredentials(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, timeout time.Duration) *Credentials {
	ctx = withHTTPTimeout(ctx, timeout)
	return NewCredentialsFromSource(conf.TokenSource(ctx, token), token, timeout)
}

// NewCredentialsFromSource wraps any token source; initial is the token known to be stored.
func NewCredentialsFromSource(src oauth2.TokenSource, initial *oauth2.Token, timeout time.Duration) *Credentials {
	return &Credentials{src: src, last: initial, timeout: timeout}
}

func (c *Credentials) Token() (*oauth2.Token, error) {
	t, err := c.src.Token()
	if err != nil {
		return nil, err
	}
	c.last = t
	return t, nil
}

// AccessToken is the access token last used or known.
func (c *Credentials) AccessToken() string {
	if c.last == nil {
		return ""
	}
	return c.last.AccessToken
}

// HTTPClient authorizes every request through c and never waits forever.
func (c *Credentials) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{Source: c, Base: http.DefaultTransport},
		Timeout:   c.timeout,
	}
}

// Track runs fn and persists the token if fn caused it to rotate. A persist failure
// is returned together with any error from fn.
func (c *Credentials) Track(ctx context.Context, persist TokenPersister, fn func() error) error {
	before := c.AccessToken()
	fnErr := fn()
	if after := c.AccessToken(); after != before && after != "" && persist != nil {
		metrics.TokenRotationsTotal.Inc()
		if err := persist(ctx, c.last); err != nil {
			return errors.Join(fnErr, fmt.Errorf("%w: %w", ErrPersistToken, err))
		}
	}
	return fnErr
}

func withHTTPTimeout(ctx context.Context, timeout time.Duration) context.Context {
	if timeout <= 0 {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
}
