// ABOUTME: Data models for CRM entities
// ABOUTME: Defines users, contacts, interactions, analyses, and raw Google records
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SocialAccount is a linked external account with its OAuth credentials.
type SocialAccount struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Provider     string     `json:"provider"`
	UID          string     `json:"uid"`
	AccessToken  string     `json:"-"`
	RefreshToken string     `json:"-"`
	TokenExpiry  *time.Time `json:"token_expiry,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

const ProviderGoogle = "google"

type Contact struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	Name            string    `json:"name"`
	FrequencyInDays *int      `json:"frequency_in_days,omitempty"`
	Description     string    `json:"description,omitempty"`
	LinkedInURL     string    `json:"linkedin_url,omitempty"`
	TwitterURL      string    `json:"twitter_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Tracked reports whether the contact takes part in due-date tracking.
func (c *Contact) Tracked() bool {
	return c.FrequencyInDays != nil && *c.FrequencyInDays != 0
}

type EmailAddress struct {
	ID        uuid.UUID `json:"id"`
	ContactID uuid.UUID `json:"contact_id"`
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type PhoneNumber struct {
	ID          uuid.UUID `json:"id"`
	ContactID   uuid.UUID `json:"contact_id"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

type InteractionType struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// InteractionType slugs seeded by the schema.
const (
	InteractionEmail      = "email"
	InteractionMeeting    = "meeting"
	InteractionTouchpoint = "touchpoint"
	InteractionNote       = "note"
)

type Interaction struct {
	ID          uuid.UUID   `json:"id"`
	UserID      uuid.UUID   `json:"user_id"`
	Type        *string     `json:"type,omitempty"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	WasAt       time.Time   `json:"was_at"`
	ContactIDs  []uuid.UUID `json:"contact_ids,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type InteractionAnalysis struct {
	ID                    uuid.UUID         `json:"id"`
	InteractionID         uuid.UUID         `json:"interaction_id"`
	TopicsDiscussed       []string          `json:"topics_discussed"`
	ActionItems           []string          `json:"action_items"`
	KeyInsights           []string          `json:"key_insights"`
	SentimentScore        *float64          `json:"sentiment_score,omitempty"`
	FollowUpNeeded        bool              `json:"follow_up_needed"`
	SuggestedFollowUpDate *time.Time        `json:"suggested_follow_up_date,omitempty"`
	PersonalInfoMentioned map[string]string `json:"personal_info_mentioned"`
	ConversationContext   string            `json:"conversation_context,omitempty"`
	AnalysisVersion       string            `json:"analysis_version"`
	CreatedAt             time.Time         `json:"created_at"`
	LastUpdated           time.Time         `json:"last_updated"`
}

// GoogleEmail is a Gmail message payload stored verbatim until reconciled.
type GoogleEmail struct {
	ID              uuid.UUID       `json:"id"`
	SocialAccountID uuid.UUID       `json:"social_account_id"`
	InteractionID   *uuid.UUID      `json:"interaction_id,omitempty"`
	GmailMessageID  string          `json:"gmail_message_id"`
	Data            json.RawMessage `json:"data"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// GoogleCalendarEvent is a Calendar event payload; overwritten on every sync.
type GoogleCalendarEvent struct {
	ID               uuid.UUID       `json:"id"`
	SocialAccountID  uuid.UUID       `json:"social_account_id"`
	InteractionID    *uuid.UUID      `json:"interaction_id,omitempty"`
	GoogleCalendarID string          `json:"google_calendar_id"`
	Data             json.RawMessage `json:"data"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ContactCount pairs a contact with an interaction count for ranked listings.
type ContactCount struct {
	Contact
	InteractionCount int `json:"interaction_count"`
}

// Sync status constants.
const (
	SyncStatusIdle    = "idle"
	SyncStatusSyncing = "syncing"
	SyncStatusError   = "error"
)

// Sync service names.
const (
	ServiceGmail    = "gmail"
	ServiceCalendar = "calendar"
	ServiceContacts = "contacts"
)

type SyncState struct {
	AccountID    uuid.UUID  `json:"account_id"`
	Service      string     `json:"service"`
	LastSyncTime *time.Time `json:"last_sync_time,omitempty"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
	ResumeToken  string     `json:"resume_token,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// SyncRun is the audit record of one sync pass for one account.
type SyncRun struct {
	ID           string     `json:"id"`
	AccountID    uuid.UUID  `json:"account_id"`
	Service      string     `json:"service"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	ItemsFetched int        `json:"items_fetched"`
	ItemsStored  int        `json:"items_stored"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"error_message,omitempty"`
}
