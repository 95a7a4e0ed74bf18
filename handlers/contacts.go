// ABOUTME: Contact MCP tool handlers
// ABOUTME: Implements add_contact, find_contacts, update_contact, get_contact_status, list_due_contacts, and add_touchpoint
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

type ContactHandlers struct {
	svc    *crm.Service
	userID uuid.UUID
}

func NewContactHandlers(svc *crm.Service, userID uuid.UUID) *ContactHandlers {
	return &ContactHandlers{svc: svc, userID: userID}
}

type AddContactInput struct {
	Name            string   `json:"name" jsonschema:"Contact name (required)"`
	FrequencyInDays *int     `json:"frequency_in_days,omitempty" jsonschema:"Days between interactions; omit to leave the contact untracked"`
	Description     string   `json:"description,omitempty" jsonschema:"Notes about the contact"`
	LinkedInURL     string   `json:"linkedin_url,omitempty" jsonschema:"LinkedIn profile URL"`
	TwitterURL      string   `json:"twitter_url,omitempty" jsonschema:"Twitter profile URL"`
	Emails          []string `json:"emails,omitempty" jsonschema:"Email addresses of the contact"`
	Phones          []string `json:"phones,omitempty" jsonschema:"Phone numbers of the contact"`
}

type ContactOutput struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	FrequencyInDays *int   `json:"frequency_in_days,omitempty"`
	Description     string `json:"description,omitempty"`
	LinkedInURL     string `json:"linkedin_url,omitempty"`
	TwitterURL      string `json:"twitter_url,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func (h *ContactHandlers) AddContact(ctx context.Context, _ *mcp.CallToolRequest, input AddContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.svc.CreateContact(ctx, h.userID, crm.ContactInput(input))
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type UpdateContactInput struct {
	ID              string `json:"id" jsonschema:"Contact ID (required)"`
	Name            string `json:"name,omitempty" jsonschema:"New name"`
	FrequencyInDays *int   `json:"frequency_in_days,omitempty" jsonschema:"New cadence in days; 0 stops tracking"`
	Description     string `json:"description,omitempty" jsonschema:"New notes"`
	LinkedInURL     string `json:"linkedin_url,omitempty" jsonschema:"New LinkedIn URL"`
	TwitterURL      string `json:"twitter_url,omitempty" jsonschema:"New Twitter URL"`
}

// UpdateContact changes only the fields that are set.
func (h *ContactHandlers) UpdateContact(ctx context.Context, _ *mcp.CallToolRequest, input UpdateContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	id, err := uuid.Parse(input.ID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("invalid contact ID: %w", err)
	}
	detail, err := h.svc.ContactDetail(ctx, h.userID, id)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("contact not found: %w", err)
	}

	current := detail.Contact
	update := crm.ContactInput{
		Name:            current.Name,
		FrequencyInDays: current.FrequencyInDays,
		Description:     current.Description,
		LinkedInURL:     current.LinkedInURL,
		TwitterURL:      current.TwitterURL,
	}
	if input.Name != "" {
		update.Name = input.Name
	}
	if input.FrequencyInDays != nil {
		update.FrequencyInDays = input.FrequencyInDays
	}
	if input.Description != "" {
		update.Description = input.Description
	}
	if input.LinkedInURL != "" {
		update.LinkedInURL = input.LinkedInURL
	}
	if input.TwitterURL != "" {
		update.TwitterURL = input.TwitterURL
	}

	contact, err := h.svc.UpdateContact(ctx, h.userID, id, update)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to update contact: %w", err)
	}
	return nil, contactToOutput(contact), nil
}

type FindContactsInput struct {
	Query string `json:"query,omitempty" jsonschema:"Search query (searches name and email)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (default 10)"`
}

type FindContactsOutput struct {
	Contacts []ContactOutput `json:"contacts"`
}

func (h *ContactHandlers) FindContacts(ctx context.Context, _ *mcp.CallToolRequest, input FindContactsInput) (*mcp.CallToolResult, FindContactsOutput, error) {
	limit := input.Limit
	if limit == 0 {
		limit = 10
	}
	contacts, err := h.svc.FindContacts(ctx, h.userID, input.Query, limit)
	if err != nil {
		return nil, FindContactsOutput{}, fmt.Errorf("failed to find contacts: %w", err)
	}

	result := make([]ContactOutput, len(contacts))
	for i := range contacts {
		result[i] = contactToOutput(&contacts[i])
	}
	return nil, FindContactsOutput{Contacts: result}, nil
}

type ContactIDInput struct {
	ContactID string `json:"contact_id" jsonschema:"Contact ID (required)"`
}

type ContactStatusOutput struct {
	Contact         ContactOutput        `json:"contact"`
	Status          string               `json:"status"`
	Urgency         int                  `json:"urgency"`
	DueDate         *string              `json:"due_date,omitempty"`
	LastInteraction *string              `json:"last_interaction,omitempty"`
	Emails          []string             `json:"emails"`
	Phones          []string             `json:"phones"`
	Interactions    []InteractionSummary `json:"interactions"`
}

func (h *ContactHandlers) GetContactStatus(ctx context.Context, _ *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, ContactStatusOutput, error) {
	id, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, ContactStatusOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}
	detail, err := h.svc.ContactDetail(ctx, h.userID, id)
	if err != nil {
		return nil, ContactStatusOutput{}, fmt.Errorf("failed to get contact: %w", err)
	}
	return nil, detailToOutput(detail), nil
}

func detailToOutput(detail *crm.ContactDetail) ContactStatusOutput {
	out := ContactStatusOutput{
		Contact:      contactToOutput(&detail.Contact),
		Status:       detail.Urgency.Status.String(),
		Urgency:      detail.Urgency.Urgency,
		DueDate:      formatTimePtr(detail.Urgency.DueDate),
		Emails:       []string{},
		Phones:       []string{},
		Interactions: []InteractionSummary{},
	}
	if detail.Urgency.HasInteraction {
		out.LastInteraction = formatTimePtr(&detail.Urgency.LastInteraction)
	}
	for _, e := range detail.Emails {
		out.Emails = append(out.Emails, e.Email)
	}
	for _, p := range detail.Phones {
		out.Phones = append(out.Phones, p.PhoneNumber)
	}
	for i := range detail.Interactions {
		out.Interactions = append(out.Interactions, interactionToSummary(&detail.Interactions[i]))
	}
	return out
}

type ListDueContactsInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter: out_of_touch, in_touch, or hidden (default: all tracked contacts)"`
}

type DueContactOutput struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Urgency int     `json:"urgency"`
	DueDate *string `json:"due_date,omitempty"`
}

type ListDueContactsOutput struct {
	Counts   db.StatusCounts    `json:"counts"`
	Contacts []DueContactOutput `json:"contacts"`
}

// ListDueContacts lists contacts by status, most overdue first.
func (h *ContactHandlers) ListDueContacts(ctx context.Context, _ *mcp.CallToolRequest, input ListDueContactsInput) (*mcp.CallToolResult, ListDueContactsOutput, error) {
	var filter *models.ContactStatus
	if input.Status != "" {
		s, ok := models.ParseContactStatus(input.Status)
		if !ok {
			return nil, ListDueContactsOutput{}, fmt.Errorf("unknown status: %s (valid: out_of_touch, in_touch, hidden)", input.Status)
		}
		filter = &s
	}
	overview, err := h.svc.ContactOverview(ctx, h.userID, filter)
	if err != nil {
		return nil, ListDueContactsOutput{}, fmt.Errorf("failed to list contacts: %w", err)
	}

	out := ListDueContactsOutput{Counts: overview.Counts, Contacts: []DueContactOutput{}}
	for _, dc := range overview.Contacts {
		out.Contacts = append(out.Contacts, DueContactOutput{
			ID:      dc.Contact.ID.String(),
			Name:    dc.Contact.Name,
			Status:  dc.Status.String(),
			Urgency: dc.Urgency,
			DueDate: formatTimePtr(dc.DueDate),
		})
	}
	return nil, out, nil
}

func (h *ContactHandlers) AddTouchpoint(ctx context.Context, _ *mcp.CallToolRequest, input ContactIDInput) (*mcp.CallToolResult, LogInteractionOutput, error) {
	id, err := uuid.Parse(input.ContactID)
	if err != nil {
		return nil, LogInteractionOutput{}, fmt.Errorf("invalid contact_id: %w", err)
	}
	res, err := h.svc.AddTouchpoint(ctx, h.userID, id)
	if err != nil {
		return nil, LogInteractionOutput{}, fmt.Errorf("failed to add touchpoint: %w", err)
	}
	return nil, logResultToOutput(res), nil
}

func contactToOutput(contact *models.Contact) ContactOutput {
	return ContactOutput{
		ID:              contact.ID.String(),
		Name:            contact.Name,
		FrequencyInDays: contact.FrequencyInDays,
		Description:     contact.Description,
		LinkedInURL:     contact.LinkedInURL,
		TwitterURL:      contact.TwitterURL,
		CreatedAt:       contact.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       contact.UpdatedAt.Format(time.RFC3339),
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
