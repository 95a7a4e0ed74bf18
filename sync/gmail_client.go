// ABOUTME: Google Gmail API client for email sync
// ABOUTME: Creates a Gmail service over an authorized HTTP client
package sync

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// NewGmailClient creates a Gmail service; extra options let tests point it at a fake endpoint.
func NewGmailClient(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*gmail.Service, error) {
	if client == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// ProfileEmail returns the address of the authorized Gmail account.
func ProfileEmail(ctx context.Context, svc *gmail.Service) (string, error) {
	profile, err := svc.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get user profile: %w", err)
	}
	return profile.EmailAddress, nil
}
