// ABOUTME: Prompt construction and tolerant parsing of model output
// ABOUTME: Strips code fences, fills defaults, and resolves the follow-up date
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/touchbase/models"
)

// PromptContact is a participant plus the interactions that came before this one.
type PromptContact struct {
	Name   string
	Recent []models.Interaction
}

// BuildPrompt renders the analysis request for one interaction.
func BuildPrompt(it *models.Interaction, contacts []PromptContact) string {
	var context []string
	names := make([]string, 0, len(contacts))
	for _, c := range contacts {
		names = append(names, c.Name)
		if len(c.Recent) == 0 {
			continue
		}
		context = append(context, fmt.Sprintf("\nRecent interactions with %s:", c.Name))
		for _, r := range c.Recent {
			context = append(context, fmt.Sprintf("- %s: %s", r.WasAt.Format("2006-01-02"), r.Title))
		}
	}
	recent := "No previous interactions found."
	if len(context) > 0 {
		recent = strings.Join(context, "\n")
	}

	return fmt.Sprintf(`Analyze this interaction and provide insights in valid JSON format using this exact structure:
{
    "topics_discussed": ["topic1", "topic2", ...],
    "action_items": ["action1", "action2", ...],
    "key_insights": ["insight1", "insight2", ...],
    "sentiment_score": <float between -1 and 1>,
    "follow_up_needed": <boolean>,
    "suggested_follow_up_date": "<YYYY-MM-DD>",
    "personal_info_mentioned": {"category1": "info1", "category2": "info2", ...},
    "conversation_context": "summary of how this interaction fits into the relationship"
}

Interaction to analyze:
Title: %s
Description: %s
Date: %s
Contacts: %s

Recent Context:
%s`, it.Title, it.Description, it.WasAt.Format(time.RFC3339), strings.Join(names, ", "), recent)
}

// ExtractJSON pulls the JSON document out of a reply that may wrap it in a code fence.
func ExtractJSON(text string) string {
	if _, after, ok := strings.Cut(text, "```json"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	if _, after, ok := strings.Cut(text, "```"); ok {
		body, _, _ := strings.Cut(after, "```")
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(text)
}

type rawAnalysis struct {
	TopicsDiscussed       json.RawMessage `json:"topics_discussed"`
	ActionItems           json.RawMessage `json:"action_items"`
	KeyInsights           json.RawMessage `json:"key_insights"`
	SentimentScore        *float64        `json:"sentiment_score"`
	FollowUpNeeded        *bool           `json:"follow_up_needed"`
	SuggestedFollowUpDate *string         `json:"suggested_follow_up_date"`
	PersonalInfoMentioned json.RawMessage `json:"personal_info_mentioned"`
	ConversationContext   *string         `json:"conversation_context"`
}

// ParseAnalysis decodes model output into an analysis for the interaction that happened at wasAt.
// Missing fields take neutral defaults; sentiment is clamped to [-1, 1].
func ParseAnalysis(text string, wasAt time.Time) (*models.InteractionAnalysis, error) {
	p, err := parseAnalysis(text, wasAt)
	if err != nil {
		return nil, err
	}
	return p.analysis, nil
}

type parsedAnalysis struct {
	analysis *models.InteractionAnalysis
	// dateErr is set when the follow-up date fell back to the default.
	dateErr error
}

func parseAnalysis(text string, wasAt time.Time) (parsedAnalysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &raw); err != nil {
		return parsedAnalysis{}, fmt.Errorf("failed to parse response as JSON: %w", err)
	}

	score := 0.0
	if raw.SentimentScore != nil {
		score = min(max(*raw.SentimentScore, -1), 1)
	}

	a := &models.InteractionAnalysis{
		TopicsDiscussed:       stringList(raw.TopicsDiscussed),
		ActionItems:           stringList(raw.ActionItems),
		KeyInsights:           stringList(raw.KeyInsights),
		SentimentScore:        &score,
		PersonalInfoMentioned: stringMap(raw.PersonalInfoMentioned),
	}
	if raw.FollowUpNeeded != nil {
		a.FollowUpNeeded = *raw.FollowUpNeeded
	}
	if raw.ConversationContext != nil {
		a.ConversationContext = *raw.ConversationContext
	}

	dateStr := ""
	if raw.SuggestedFollowUpDate != nil {
		dateStr = *raw.SuggestedFollowUpDate
	}
	followUp, dateErr := ParseFollowUpDate(dateStr, wasAt)
	a.SuggestedFollowUpDate = &followUp
	return parsedAnalysis{analysis: a, dateErr: dateErr}, nil
}

// ParseFollowUpDate combines a YYYY-MM-DD date with base's time of day and location.
// When s does not parse, it returns base plus seven days and the parse error.
func ParseFollowUpDate(s string, base time.Time) (time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return base.AddDate(0, 0, 7), fmt.Errorf("failed to parse follow-up date %q: %w", s, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), base.Hour(), base.Minute(), base.Second(), base.Nanosecond(), base.Location()), nil
}

// stringList accepts a list of strings, or of anything, and drops what cannot be rendered.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		var single string
		if json.Unmarshal(raw, &single) == nil && single != "" {
			out = append(out, single)
		}
		return out
	}
	for _, item := range items {
		switch v := item.(type) {
		case string:
			out = append(out, v)
		case nil:
		default:
			b, _ := json.Marshal(v)
			out = append(out, string(b))
		}
	}
	return out
}

func stringMap(raw json.RawMessage) map[string]string {
	out := map[string]string{}
	if len(raw) == 0 {
		return out
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return out
	}
	for k, v := range m {
		switch val := v.(type) {
		case string:
			out[k] = val
		case nil:
		default:
			b, _ := json.Marshal(val)
			out[k] = string(b)
		}
	}
	return out
}
