// ABOUTME: Database schema definitions and initialization
// ABOUTME: Creates SQLite tables for contacts, interactions, analyses, and sync records
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS social_accounts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	provider TEXT NOT NULL,
	uid TEXT NOT NULL,
	access_token TEXT NOT NULL DEFAULT '',
	refresh_token TEXT NOT NULL DEFAULT '',
	token_expiry DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (provider, uid),
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_social_accounts_user_id ON social_accounts(user_id);

CREATE TABLE IF NOT EXISTS contacts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	name TEXT NOT NULL,
	frequency_in_days INTEGER,
	description TEXT NOT NULL DEFAULT '',
	linkedin_url TEXT NOT NULL DEFAULT '',
	twitter_url TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_contacts_user_id ON contacts(user_id);
CREATE INDEX IF NOT EXISTS idx_contacts_name ON contacts(name);

CREATE TABLE IF NOT EXISTS email_addresses (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	email TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (user_id, email),
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_email_addresses_contact_id ON email_addresses(contact_id);

CREATE TABLE IF NOT EXISTS phone_numbers (
	id TEXT PRIMARY KEY,
	contact_id TEXT NOT NULL,
	phone_number TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_phone_numbers_contact_id ON phone_numbers(contact_id);

CREATE TABLE IF NOT EXISTS interaction_types (
	slug TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

INSERT OR IGNORE INTO interaction_types (slug, name, description) VALUES
	('email', 'Email', 'Email exchanged with the contact'),
	('meeting', 'Meeting', 'Calendar meeting with the contact'),
	('touchpoint', 'Touchpoint', 'Quick check-in logged by hand'),
	('note', 'Note', 'Free-form note about the contact');

CREATE TABLE IF NOT EXISTS interactions (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	was_at DATETIME NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
	FOREIGN KEY (type) REFERENCES interaction_types(slug) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_interactions_user_was_at ON interactions(user_id, was_at);

CREATE TABLE IF NOT EXISTS interaction_contacts (
	interaction_id TEXT NOT NULL,
	contact_id TEXT NOT NULL,
	PRIMARY KEY (interaction_id, contact_id),
	FOREIGN KEY (interaction_id) REFERENCES interactions(id) ON DELETE CASCADE,
	FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_interaction_contacts_contact_id ON interaction_contacts(contact_id);

CREATE TABLE IF NOT EXISTS interaction_analyses (
	id TEXT PRIMARY KEY,
	interaction_id TEXT NOT NULL UNIQUE,
	topics_discussed TEXT NOT NULL DEFAULT '[]',
	action_items TEXT NOT NULL DEFAULT '[]',
	key_insights TEXT NOT NULL DEFAULT '[]',
	sentiment_score REAL,
	follow_up_needed INTEGER NOT NULL DEFAULT 0,
	suggested_follow_up_date DATETIME,
	personal_info_mentioned TEXT NOT NULL DEFAULT '{}',
	conversation_context TEXT NOT NULL DEFAULT '',
	analysis_version TEXT NOT NULL DEFAULT '1.0',
	created_at DATETIME NOT NULL,
	last_updated DATETIME NOT NULL,
	FOREIGN KEY (interaction_id) REFERENCES interactions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_analyses_follow_up_date ON interaction_analyses(suggested_follow_up_date);
CREATE INDEX IF NOT EXISTS idx_analyses_follow_up_needed ON interaction_analyses(follow_up_needed);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON interaction_analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_analyses_last_updated ON interaction_analyses(last_updated);
CREATE INDEX IF NOT EXISTS idx_analyses_sentiment ON interaction_analyses(sentiment_score);

CREATE TABLE IF NOT EXISTS google_emails (
	id TEXT PRIMARY KEY,
	social_account_id TEXT NOT NULL,
	interaction_id TEXT,
	gmail_message_id TEXT NOT NULL UNIQUE,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (social_account_id) REFERENCES social_accounts(id) ON DELETE CASCADE,
	FOREIGN KEY (interaction_id) REFERENCES interactions(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_google_emails_account ON google_emails(social_account_id);

CREATE TABLE IF NOT EXISTS google_calendar_events (
	id TEXT PRIMARY KEY,
	social_account_id TEXT NOT NULL,
	interaction_id TEXT,
	google_calendar_id TEXT NOT NULL UNIQUE,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	FOREIGN KEY (social_account_id) REFERENCES social_accounts(id) ON DELETE CASCADE,
	FOREIGN KEY (interaction_id) REFERENCES interactions(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_google_calendar_events_account ON google_calendar_events(social_account_id);

CREATE TABLE IF NOT EXISTS sync_state (
	account_id TEXT NOT NULL,
	service TEXT NOT NULL,
	last_sync_time DATETIME,
	status TEXT NOT NULL DEFAULT 'idle',
	error_message TEXT,
	resume_token TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	PRIMARY KEY (account_id, service),
	FOREIGN KEY (account_id) REFERENCES social_accounts(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	account_id TEXT NOT NULL,
	service TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME,
	items_fetched INTEGER NOT NULL DEFAULT 0,
	items_stored INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	FOREIGN KEY (account_id) REFERENCES social_accounts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_sync_runs_account ON sync_runs(account_id, started_at);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
