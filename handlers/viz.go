// ABOUTME: GraphViz visualization MCP handlers
// ABOUTME: Provides generate_graph tool for agents
package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/viz"
)

type VizHandlers struct {
	db     *sql.DB
	userID uuid.UUID
}

func NewVizHandlers(database *sql.DB, userID uuid.UUID) *VizHandlers {
	return &VizHandlers{db: database, userID: userID}
}

type GenerateGraphInput struct {
	Type     string `json:"type" jsonschema:"Graph type: contacts or complete"`
	EntityID string `json:"entity_id,omitempty" jsonschema:"Contact ID to center a contacts graph on (optional)"`
}

type GenerateGraphOutput struct {
	GraphType string `json:"graph_type"`
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) GenerateGraph(ctx context.Context, _ *mcp.CallToolRequest, input GenerateGraphInput) (*mcp.CallToolResult, GenerateGraphOutput, error) {
	if input.Type == "" {
		return nil, GenerateGraphOutput{}, fmt.Errorf("type is required")
	}

	generator := viz.NewGraphGenerator(h.db)
	var dot string
	var err error

	switch input.Type {
	case "contacts":
		var contactID *uuid.UUID
		if input.EntityID != "" {
			id, perr := uuid.Parse(input.EntityID)
			if perr != nil {
				return nil, GenerateGraphOutput{}, fmt.Errorf("invalid entity_id: %w", perr)
			}
			contactID = &id
		}
		dot, err = generator.GenerateContactGraph(ctx, h.userID, contactID)

	case "complete":
		user, uerr := db.GetUser(ctx, h.db, h.userID)
		if uerr != nil {
			return nil, GenerateGraphOutput{}, fmt.Errorf("failed to load user: %w", uerr)
		}
		dot, err = generator.GenerateCompleteGraph(ctx, user)

	default:
		return nil, GenerateGraphOutput{}, fmt.Errorf("unknown graph type: %s (valid types: contacts, complete)", input.Type)
	}

	if err != nil {
		return nil, GenerateGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	return nil, GenerateGraphOutput{
		GraphType: input.Type,
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, " -- ") + strings.Count(dot, " -> "),
	}, nil
}
