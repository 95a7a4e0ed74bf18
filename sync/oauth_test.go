package sync

import (
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/harperreed/touchbase/config"
	"github.com/harperreed/touchbase/models"
)

func TestOAuthConfigCreation(t *testing.T) {
	conf := NewOAuthConfig(&config.Config{
		GoogleClientID:     "client-id",
		GoogleClientSecret: "secret",
		GoogleRedirectURL:  config.DefaultRedirectURL,
	})

	assert.Equal(t, "client-id", conf.ClientID)
	assert.Equal(t, config.DefaultRedirectURL, conf.RedirectURL)
	assert.ElementsMatch(t, []string{
		"https://www.googleapis.com/auth/calendar.readonly",
		"https://www.googleapis.com/auth/contacts.readonly",
		"https://www.googleapis.com/auth/gmail.readonly",
		"https://www.googleapis.com/auth/userinfo.email",
	}, conf.Scopes)
}

func TestAuthURLRequestsOfflineAccess(t *testing.T) {
	conf := NewOAuthConfig(&config.Config{GoogleClientID: "client-id"})
	u, err := url.Parse(AuthURL(conf, "state-1"))
	require.NoError(t, err)
	assert.Equal(t, "offline", u.Query().Get("access_type"))
	assert.Equal(t, "consent", u.Query().Get("prompt"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
}

func TestSaveAndLoadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.json")
	token := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer", Expiry: time.Now().Add(time.Hour).Truncate(time.Second)}

	require.NoError(t, SaveToken(path, token))
	loaded, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.AccessToken)
	assert.Equal(t, "r", loaded.RefreshToken)
	assert.True(t, loaded.Expiry.Equal(token.Expiry))
}

func TestLoadTokenMissingFile(t *testing.T) {
	_, err := LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestApplyTokenKeepsRefreshToken(t *testing.T) {
	acct := &models.SocialAccount{AccessToken: "old", RefreshToken: "refresh"}
	ApplyToken(acct, &oauth2.Token{AccessToken: "new", Expiry: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)})

	assert.Equal(t, "new", acct.AccessToken)
	assert.Equal(t, "refresh", acct.RefreshToken)
	require.NotNil(t, acct.TokenExpiry)

	token := AccountToken(acct)
	assert.Equal(t, "new", token.AccessToken)
	assert.Equal(t, "refresh", token.RefreshToken)
	assert.True(t, token.Expiry.Equal(*acct.TokenExpiry))
}
