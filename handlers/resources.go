// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to contacts and the dashboard via touchbase:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/crm"
)

const resourceScheme = "touchbase://"

type ResourceHandlers struct {
	svc    *crm.Service
	userID uuid.UUID
}

func NewResourceHandlers(svc *crm.Service, userID uuid.UUID) *ResourceHandlers {
	return &ResourceHandlers{svc: svc, userID: userID}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	switch parts[0] {
	case "contacts":
		if len(parts) == 1 || parts[1] == "" {
			return h.readAllContacts(ctx, uri)
		}
		return h.readContact(ctx, uri, parts[1])
	case "dashboard":
		return h.readDashboard(ctx, uri)
	default:
		return nil, fmt.Errorf("unknown resource: %s", parts[0])
	}
}

func (h *ResourceHandlers) readAllContacts(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	overview, err := h.svc.ContactOverview(ctx, h.userID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
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
	return jsonResource(uri, out)
}

func (h *ResourceHandlers) readContact(ctx context.Context, uri, idStr string) (*mcp.ReadResourceResult, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid contact ID: %w", err)
	}
	detail, err := h.svc.ContactDetail(ctx, h.userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	return jsonResource(uri, detailToOutput(detail))
}

type dashboardResource struct {
	Due       []DueContactOutput `json:"due"`
	Recent    []ContactCountItem `json:"recent"`
	Frequent  []ContactCountItem `json:"frequent"`
	FollowUps []FollowUpItem     `json:"follow_ups"`
}

type ContactCountItem struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Interactions int    `json:"interactions"`
}

type FollowUpItem struct {
	InteractionID string  `json:"interaction_id"`
	Title         string  `json:"title"`
	Date          *string `json:"date,omitempty"`
}

func (h *ResourceHandlers) readDashboard(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	d, err := h.svc.Dashboard(ctx, h.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	out := dashboardResource{
		Due:       []DueContactOutput{},
		Recent:    []ContactCountItem{},
		Frequent:  []ContactCountItem{},
		FollowUps: []FollowUpItem{},
	}
	for _, dc := range d.Due {
		out.Due = append(out.Due, DueContactOutput{
			ID:      dc.Contact.ID.String(),
			Name:    dc.Contact.Name,
			Status:  dc.Status.String(),
			Urgency: dc.Urgency,
			DueDate: formatTimePtr(dc.DueDate),
		})
	}
	for _, cc := range d.Recent {
		out.Recent = append(out.Recent, ContactCountItem{ID: cc.ID.String(), Name: cc.Name, Interactions: cc.InteractionCount})
	}
	for _, cc := range d.Frequent {
		out.Frequent = append(out.Frequent, ContactCountItem{ID: cc.ID.String(), Name: cc.Name, Interactions: cc.InteractionCount})
	}
	for _, f := range d.FollowUps {
		out.FollowUps = append(out.FollowUps, FollowUpItem{InteractionID: f.InteractionID.String(), Title: f.InteractionTitle, Date: formatTimePtr(f.Date)})
	}
	return jsonResource(uri, out)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}}, nil
}
