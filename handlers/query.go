// ABOUTME: Universal query tool handler
// ABOUTME: Filters contacts, interactions, and co-participants through one MCP tool
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

type QueryHandlers struct {
	svc    *crm.Service
	userID uuid.UUID
}

func NewQueryHandlers(svc *crm.Service, userID uuid.UUID) *QueryHandlers {
	return &QueryHandlers{svc: svc, userID: userID}
}

type QueryCRMInput struct {
	EntityType string         `json:"entity_type" jsonschema:"Type of entity to query (contact, interaction, co_participant)"`
	Query      string         `json:"query,omitempty" jsonschema:"Search text (contact name or email, interaction title or description)"`
	Filters    map[string]any `json:"filters,omitempty" jsonschema:"Filters: status for contacts; type, contact_id, since (YYYY-MM-DD) for interactions; contact_id for co_participant"`
	Limit      int            `json:"limit,omitempty" jsonschema:"Maximum results to return (default 10)"`
}

type QueryCRMOutput struct {
	EntityType string `json:"entity_type"`
	Results    []any  `json:"results"`
	Count      int    `json:"count"`
}

// CoParticipantOutput is a contact seen in the same interactions as another one.
type CoParticipantOutput struct {
	ContactID string `json:"contact_id"`
	Name      string `json:"name"`
	Count     int    `json:"shared_interactions"`
}

func (h *QueryHandlers) QueryCRM(ctx context.Context, _ *mcp.CallToolRequest, input QueryCRMInput) (*mcp.CallToolResult, QueryCRMOutput, error) {
	if input.Limit <= 0 {
		input.Limit = 10
	}

	var results []any
	var err error
	switch input.EntityType {
	case "contact":
		results, err = h.queryContacts(ctx, input)
	case "interaction":
		results, err = h.queryInteractions(ctx, input)
	case "co_participant":
		results, err = h.queryCoParticipants(ctx, input)
	default:
		return nil, QueryCRMOutput{}, fmt.Errorf("invalid entity_type: %s (valid: contact, interaction, co_participant)", input.EntityType)
	}
	if err != nil {
		return nil, QueryCRMOutput{}, err
	}

	if results == nil {
		results = []any{}
	}
	return nil, QueryCRMOutput{
		EntityType: input.EntityType,
		Results:    results,
		Count:      len(results),
	}, nil
}

func (h *QueryHandlers) queryContacts(ctx context.Context, input QueryCRMInput) ([]any, error) {
	status, ok := stringFilter(input.Filters, "status")
	if !ok {
		contacts, err := h.svc.FindContacts(ctx, h.userID, input.Query, input.Limit)
		if err != nil {
			return nil, fmt.Errorf("failed to find contacts: %w", err)
		}
		results := make([]any, len(contacts))
		for i := range contacts {
			results[i] = contactToOutput(&contacts[i])
		}
		return results, nil
	}

	s, valid := models.ParseContactStatus(status)
	if !valid {
		return nil, fmt.Errorf("unknown status: %s (valid: out_of_touch, in_touch, hidden)", status)
	}
	overview, err := h.svc.ContactOverview(ctx, h.userID, &s)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	query := strings.ToLower(input.Query)
	var results []any
	for _, dc := range overview.Contacts {
		if query != "" && !strings.Contains(strings.ToLower(dc.Contact.Name), query) {
			continue
		}
		results = append(results, DueContactOutput{
			ID:      dc.Contact.ID.String(),
			Name:    dc.Contact.Name,
			Status:  dc.Status.String(),
			Urgency: dc.Urgency,
			DueDate: formatTimePtr(dc.DueDate),
		})
		if len(results) == input.Limit {
			break
		}
	}
	return results, nil
}

func (h *QueryHandlers) queryInteractions(ctx context.Context, input QueryCRMInput) ([]any, error) {
	contactID, err := uuidFilter(input.Filters, "contact_id")
	if err != nil {
		return nil, err
	}

	var since *time.Time
	if raw, ok := stringFilter(input.Filters, "since"); ok {
		t, err := parseWhen(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid since: %w", err)
		}
		since = &t
	}
	typ, _ := stringFilter(input.Filters, "type")

	var interactions []models.Interaction
	if contactID != nil {
		interactions, err = db.ListContactInteractions(ctx, h.svc.DB(), h.userID, *contactID)
	} else {
		interactions, err = h.svc.ListInteractions(ctx, h.userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}

	query := strings.ToLower(input.Query)
	var results []any
	for i := range interactions {
		it := &interactions[i]
		if typ != "" && (it.Type == nil || *it.Type != typ) {
			continue
		}
		if since != nil && it.WasAt.Before(*since) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(it.Title+" "+it.Description), query) {
			continue
		}
		results = append(results, interactionToSummary(it))
		if len(results) == input.Limit {
			break
		}
	}
	return results, nil
}

func (h *QueryHandlers) queryCoParticipants(ctx context.Context, input QueryCRMInput) ([]any, error) {
	contactID, err := uuidFilter(input.Filters, "contact_id")
	if err != nil {
		return nil, err
	}
	// contact_id is required for co-participant queries
	if contactID == nil {
		return nil, fmt.Errorf("contact_id filter is required for co_participant queries")
	}

	pairs, err := db.ListCoParticipations(ctx, h.svc.DB(), h.userID)
	if err != nil {
		return nil, err
	}

	// Pairs come most frequent first
	var ids []uuid.UUID
	counts := make(map[uuid.UUID]int)
	for _, p := range pairs {
		other := p.ContactB
		switch *contactID {
		case p.ContactA:
		case p.ContactB:
			other = p.ContactA
		default:
			continue
		}
		ids = append(ids, other)
		counts[other] = p.Count
		if len(ids) == input.Limit {
			break
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	contacts, err := db.GetContactsByIDs(ctx, h.svc.DB(), h.userID, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}

	results := make([]any, 0, len(ids))
	for _, id := range ids {
		results = append(results, CoParticipantOutput{ContactID: id.String(), Name: names[id], Count: counts[id]})
	}
	return results, nil
}

func stringFilter(filters map[string]any, key string) (string, bool) {
	v, ok := filters[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func uuidFilter(filters map[string]any, key string) (*uuid.UUID, error) {
	raw, ok := stringFilter(filters, key)
	if !ok {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &id, nil
}
