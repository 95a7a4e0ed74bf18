// ABOUTME: Google People API client for contacts sync
// ABOUTME: Creates a People service over an authorized HTTP client
package sync

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
)

// NewPeopleClient creates a Google People API service.
func NewPeopleClient(ctx context.Context, client *http.Client, opts ...option.ClientOption) (*people.Service, error) {
	if client == nil {
		return nil, fmt.Errorf("http client cannot be nil")
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	service, err := people.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}
	return service, nil
}
