// ABOUTME: Interaction analysis database operations
// ABOUTME: One analysis per interaction, with list and map fields stored as JSON text
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/touchbase/models"
)

// CreateAnalysis stores the analysis; ErrAnalysisExists when the interaction already has one.
func CreateAnalysis(ctx context.Context, db *sql.DB, a *models.InteractionAnalysis) error {
	a.ID = uuid.New()
	now := time.Now().UTC()
	a.CreatedAt = now
	a.LastUpdated = now

	topics, err := json.Marshal(nonNilList(a.TopicsDiscussed))
	if err != nil {
		return fmt.Errorf("failed to encode topics: %w", err)
	}
	actions, err := json.Marshal(nonNilList(a.ActionItems))
	if err != nil {
		return fmt.Errorf("failed to encode action items: %w", err)
	}
	insights, err := json.Marshal(nonNilList(a.KeyInsights))
	if err != nil {
		return fmt.Errorf("failed to encode insights: %w", err)
	}
	info := a.PersonalInfoMentioned
	if info == nil {
		info = map[string]string{}
	}
	personal, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to encode personal info: %w", err)
	}

	var score sql.NullFloat64
	if a.SentimentScore != nil {
		score = sql.NullFloat64{Float64: *a.SentimentScore, Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO interaction_analyses (
			id, interaction_id, topics_discussed, action_items, key_insights, sentiment_score,
			follow_up_needed, suggested_follow_up_date, personal_info_mentioned, conversation_context,
			analysis_version, created_at, last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.ID.String(), a.InteractionID.String(), string(topics), string(actions), string(insights), score,
		a.FollowUpNeeded, nullableTime(a.SuggestedFollowUpDate), string(personal), a.ConversationContext,
		a.AnalysisVersion, a.CreatedAt, a.LastUpdated)
	if isUniqueViolation(err) {
		return ErrAnalysisExists
	}
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

func nonNilList(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}

func AnalysisExists(ctx context.Context, db *sql.DB, interactionID uuid.UUID) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM interaction_analyses WHERE interaction_id = ?
	`, interactionID.String()).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check analysis: %w", err)
	}
	return n > 0, nil
}

func GetAnalysis(ctx context.Context, db *sql.DB, interactionID uuid.UUID) (*models.InteractionAnalysis, error) {
	var a models.InteractionAnalysis
	var topics, actions, insights, personal string
	var score sql.NullFloat64
	var followUp sql.NullTime

	err := db.QueryRowContext(ctx, `
		SELECT id, interaction_id, topics_discussed, action_items, key_insights, sentiment_score,
			follow_up_needed, suggested_follow_up_date, personal_info_mentioned, conversation_context,
			analysis_version, created_at, last_updated
		FROM interaction_analyses WHERE interaction_id = ?
	`, interactionID.String()).Scan(
		&a.ID, &a.InteractionID, &topics, &actions, &insights, &score,
		&a.FollowUpNeeded, &followUp, &personal, &a.ConversationContext,
		&a.AnalysisVersion, &a.CreatedAt, &a.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(topics), &a.TopicsDiscussed); err != nil {
		return nil, fmt.Errorf("failed to decode topics: %w", err)
	}
	if err := json.Unmarshal([]byte(actions), &a.ActionItems); err != nil {
		return nil, fmt.Errorf("failed to decode action items: %w", err)
	}
	if err := json.Unmarshal([]byte(insights), &a.KeyInsights); err != nil {
		return nil, fmt.Errorf("failed to decode insights: %w", err)
	}
	if err := json.Unmarshal([]byte(personal), &a.PersonalInfoMentioned); err != nil {
		return nil, fmt.Errorf("failed to decode personal info: %w", err)
	}
	if score.Valid {
		a.SentimentScore = &score.Float64
	}
	a.SuggestedFollowUpDate = timePtr(followUp)
	return &a, nil
}

// FollowUp is an analysis flagged for follow-up, joined with its interaction title.
type FollowUp struct {
	InteractionID    uuid.UUID
	InteractionTitle string
	WasAt            time.Time
	Date             *time.Time
}

// ListFollowUps returns analyses that asked for a follow-up, soonest first.
func ListFollowUps(ctx context.Context, db *sql.DB, userID uuid.UUID, limit int) ([]FollowUp, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx, `
		SELECT i.id, i.title, i.was_at, a.suggested_follow_up_date
		FROM interaction_analyses a
		JOIN interactions i ON i.id = a.interaction_id
		WHERE i.user_id = ? AND a.follow_up_needed = 1
		ORDER BY a.suggested_follow_up_date IS NULL, a.suggested_follow_up_date
		LIMIT ?
	`, userID.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow-ups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []FollowUp
	for rows.Next() {
		var f FollowUp
		var date sql.NullTime
		if err := rows.Scan(&f.InteractionID, &f.InteractionTitle, &f.WasAt, &date); err != nil {
			return nil, fmt.Errorf("failed to scan follow-up: %w", err)
		}
		f.Date = timePtr(date)
		out = append(out, f)
	}
	return out, rows.Err()
}
