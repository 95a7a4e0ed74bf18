// ABOUTME: MCP prompt handlers for reusable relationship workflows
// ABOUTME: Provides contact-summary and follow-up-suggestions prompt templates
package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/models"
)

const promptHistoryLimit = 5

type PromptHandlers struct {
	svc    *crm.Service
	userID uuid.UUID
}

func NewPromptHandlers(svc *crm.Service, userID uuid.UUID) *PromptHandlers {
	return &PromptHandlers{svc: svc, userID: userID}
}

// Prompts lists the templates GetPrompt can render.
func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "contact-summary",
			Description: "Summarize a contact and suggest how to reconnect",
			Arguments: []*mcp.PromptArgument{
				{Name: "contact_id", Description: "Contact ID", Required: true},
			},
		},
		{
			Name:        "follow-up-suggestions",
			Description: "Suggest who to reach out to next, based on who is overdue",
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	switch request.Params.Name {
	case "contact-summary":
		return h.getContactSummaryPrompt(ctx, request.Params.Arguments)
	case "follow-up-suggestions":
		return h.getFollowUpSuggestionsPrompt(ctx)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) getContactSummaryPrompt(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	contactIDStr, ok := args["contact_id"]
	if !ok {
		return nil, fmt.Errorf("contact_id is required")
	}
	contactID, err := uuid.Parse(contactIDStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact_id: %w", err)
	}
	detail, err := h.svc.ContactDetail(ctx, h.userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("contact not found: %w", err)
	}

	var promptText strings.Builder
	promptText.WriteString("Please provide a summary of my relationship with this contact:\n\n")
	fmt.Fprintf(&promptText, "Name: %s\n", detail.Contact.Name)
	for _, e := range detail.Emails {
		fmt.Fprintf(&promptText, "Email: %s\n", e.Email)
	}
	if detail.Contact.Tracked() {
		fmt.Fprintf(&promptText, "Desired cadence: every %d days\n", *detail.Contact.FrequencyInDays)
		fmt.Fprintf(&promptText, "Status: %s (urgency %d)\n", detail.Urgency.Status, detail.Urgency.Urgency)
	}
	if detail.Urgency.HasInteraction {
		fmt.Fprintf(&promptText, "Last interaction: %s\n", detail.Urgency.LastInteraction.Format("2006-01-02"))
	}
	if detail.Contact.Description != "" {
		fmt.Fprintf(&promptText, "\nNotes: %s\n", detail.Contact.Description)
	}
	if len(detail.Interactions) > 0 {
		promptText.WriteString("\nRecent interactions:\n")
		for _, it := range detail.Interactions[:min(len(detail.Interactions), promptHistoryLimit)] {
			fmt.Fprintf(&promptText, "- %s: %s\n", it.WasAt.Format("2006-01-02"), it.Title)
		}
	}

	promptText.WriteString("\nPlease analyze this contact and provide:")
	promptText.WriteString("\n1. A brief summary of the relationship")
	promptText.WriteString("\n2. Topics worth bringing up next time")
	promptText.WriteString("\n3. A suggested way to reconnect")

	return userPrompt(fmt.Sprintf("Summary for contact: %s", detail.Contact.Name), promptText.String()), nil
}

func (h *PromptHandlers) getFollowUpSuggestionsPrompt(ctx context.Context) (*mcp.GetPromptResult, error) {
	out := models.StatusOutOfTouch
	overview, err := h.svc.ContactOverview(ctx, h.userID, &out)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}

	var promptText strings.Builder
	if len(overview.Contacts) == 0 {
		promptText.WriteString("Everyone I track is in touch. Suggest ways to deepen the relationships I already keep up.")
	} else {
		promptText.WriteString("These contacts are overdue for a check-in:\n\n")
		for _, dc := range overview.Contacts {
			fmt.Fprintf(&promptText, "- %s: %d days overdue\n", dc.Contact.Name, dc.Urgency)
		}
		promptText.WriteString("\nSuggest who to contact first and a short, personal opener for each.")
	}
	return userPrompt("Follow-up suggestions", promptText.String()), nil
}

func userPrompt(description, text string) *mcp.GetPromptResult {
	return &mcp.GetPromptResult{
		Description: description,
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: text},
			},
		},
	}
}
