// ABOUTME: Interaction MCP tool handlers
// ABOUTME: Implements log_interaction, get_interaction, and analyze_pending tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/models"
)

type InteractionHandlers struct {
	svc    *crm.Service
	userID uuid.UUID
}

func NewInteractionHandlers(svc *crm.Service, userID uuid.UUID) *InteractionHandlers {
	return &InteractionHandlers{svc: svc, userID: userID}
}

type InteractionSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
	WasAt       string `json:"was_at"`
}

type AnalysisOutput struct {
	TopicsDiscussed       []string          `json:"topics_discussed"`
	ActionItems           []string          `json:"action_items"`
	KeyInsights           []string          `json:"key_insights"`
	SentimentPercentage   float64           `json:"sentiment_percentage"`
	SentimentLabel        string            `json:"sentiment_label"`
	NeedsAttention        bool              `json:"needs_attention"`
	FollowUpNeeded        bool              `json:"follow_up_needed"`
	SuggestedFollowUpDate *string           `json:"suggested_follow_up_date,omitempty"`
	PersonalInfo          map[string]string `json:"personal_info_mentioned,omitempty"`
	ConversationContext   string            `json:"conversation_context,omitempty"`
}

type LogInteractionInput struct {
	Title       string   `json:"title" jsonschema:"Short title (required)"`
	Description string   `json:"description,omitempty" jsonschema:"What happened"`
	WasAt       string   `json:"was_at,omitempty" jsonschema:"When it happened: RFC3339 or YYYY-MM-DD (default: now)"`
	Type        string   `json:"type,omitempty" jsonschema:"email, meeting, touchpoint, or note"`
	ContactIDs  []string `json:"contact_ids,omitempty" jsonschema:"IDs of the contacts who took part"`
}

type LogInteractionOutput struct {
	Interaction InteractionSummary `json:"interaction"`
	Analysis    *AnalysisOutput    `json:"analysis,omitempty"`
	Notice      string             `json:"notice"`
}

func (h *InteractionHandlers) LogInteraction(ctx context.Context, _ *mcp.CallToolRequest, input LogInteractionInput) (*mcp.CallToolResult, LogInteractionOutput, error) {
	in, err := toInteractionInput(input)
	if err != nil {
		return nil, LogInteractionOutput{}, err
	}
	res, err := h.svc.LogInteraction(ctx, h.userID, in)
	if err != nil {
		return nil, LogInteractionOutput{}, fmt.Errorf("failed to log interaction: %w", err)
	}
	return nil, logResultToOutput(res), nil
}

type InteractionIDInput struct {
	InteractionID string `json:"interaction_id" jsonschema:"Interaction ID (required)"`
}

type InteractionDetailOutput struct {
	Interaction InteractionSummary `json:"interaction"`
	Contacts    []ContactOutput    `json:"contacts"`
	Analysis    *AnalysisOutput    `json:"analysis,omitempty"`
	Notice      string             `json:"notice,omitempty"`
}

func (h *InteractionHandlers) GetInteraction(ctx context.Context, _ *mcp.CallToolRequest, input InteractionIDInput) (*mcp.CallToolResult, InteractionDetailOutput, error) {
	id, err := uuid.Parse(input.InteractionID)
	if err != nil {
		return nil, InteractionDetailOutput{}, fmt.Errorf("invalid interaction_id: %w", err)
	}
	view, err := h.svc.InteractionDetail(ctx, h.userID, id)
	if err != nil {
		return nil, InteractionDetailOutput{}, fmt.Errorf("failed to get interaction: %w", err)
	}

	out := InteractionDetailOutput{
		Interaction: interactionToSummary(&view.Interaction),
		Contacts:    []ContactOutput{},
		Analysis:    analysisToOutput(view.Analysis),
		Notice:      view.Notice,
	}
	for i := range view.Contacts {
		out.Contacts = append(out.Contacts, contactToOutput(&view.Contacts[i]))
	}
	return nil, out, nil
}

type AnalyzePendingInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum interactions to analyze (default 10)"`
}

type AnalyzePendingOutput struct {
	Analyzed int `json:"analyzed"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (h *InteractionHandlers) AnalyzePending(ctx context.Context, _ *mcp.CallToolRequest, input AnalyzePendingInput) (*mcp.CallToolResult, AnalyzePendingOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}
	stats, err := h.svc.AnalyzePending(ctx, h.userID, limit)
	if err != nil {
		return nil, AnalyzePendingOutput{}, fmt.Errorf("failed to analyze interactions: %w", err)
	}
	return nil, AnalyzePendingOutput(stats), nil
}

func toInteractionInput(input LogInteractionInput) (crm.InteractionInput, error) {
	in := crm.InteractionInput{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
	}
	if input.WasAt != "" {
		at, err := parseWhen(input.WasAt)
		if err != nil {
			return in, err
		}
		in.WasAt = at
	}
	for _, raw := range input.ContactIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return in, fmt.Errorf("invalid contact ID %q: %w", raw, err)
		}
		in.ContactIDs = append(in.ContactIDs, id)
	}
	return in, nil
}

func parseWhen(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid was_at %q: use RFC3339 or YYYY-MM-DD", s)
	}
	return t, nil
}

func logResultToOutput(res *crm.LogResult) LogInteractionOutput {
	return LogInteractionOutput{
		Interaction: interactionToSummary(res.Interaction),
		Analysis:    analysisToOutput(res.Analysis),
		Notice:      res.Notice,
	}
}

func interactionToSummary(it *models.Interaction) InteractionSummary {
	out := InteractionSummary{
		ID:          it.ID.String(),
		Title:       it.Title,
		Description: it.Description,
		WasAt:       it.WasAt.Format(time.RFC3339),
	}
	if it.Type != nil {
		out.Type = *it.Type
	}
	return out
}

func analysisToOutput(a *models.InteractionAnalysis) *AnalysisOutput {
	if a == nil {
		return nil
	}
	return &AnalysisOutput{
		TopicsDiscussed:       a.TopicsDiscussed,
		ActionItems:           a.ActionItems,
		KeyInsights:           a.KeyInsights,
		SentimentPercentage:   a.SentimentPercentage(),
		SentimentLabel:        a.SentimentLabel(),
		NeedsAttention:        a.NeedsAttention(),
		FollowUpNeeded:        a.FollowUpNeeded,
		SuggestedFollowUpDate: formatTimePtr(a.SuggestedFollowUpDate),
		PersonalInfo:          a.PersonalInfoMentioned,
		ConversationContext:   a.ConversationContext,
	}
}
