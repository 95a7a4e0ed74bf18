// ABOUTME: Complete relationship graph centered on the user
// ABOUTME: Every contact, linked to the user by interaction count and to each other by shared interactions
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

const completeGraphLimit = 10000

// GenerateCompleteGraph draws the user at the center with every contact around them.
func (g *GraphGenerator) GenerateCompleteGraph(ctx context.Context, user *models.User) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLabel("Relationship Graph")
	graph.SetLayout("neato")

	center, err := graph.CreateNodeByName("user_" + user.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to create user node: %w", err)
	}
	label := user.Name
	if label == "" {
		label = user.Email
	}
	center.SetLabel(label)
	center.SetShape("box")
	center.SetStyle("filled")
	center.SetFillColor("lightblue")

	contacts, err := g.contactsByID(ctx, user.ID)
	if err != nil {
		return "", err
	}
	nodes := make(map[uuid.UUID]*cgraph.Node, len(contacts))
	for id, gc := range contacts {
		n, err := graph.CreateNodeByName("contact_" + id.String())
		if err != nil {
			return "", fmt.Errorf("failed to create contact node: %w", err)
		}
		styleContactNode(n, gc)
		nodes[id] = n
	}

	counts, err := db.GetFrequentContacts(ctx, g.db, user.ID, completeGraphLimit)
	if err != nil {
		return "", fmt.Errorf("failed to fetch interaction counts: %w", err)
	}
	for _, cc := range counts {
		n, ok := nodes[cc.Contact.ID]
		if !ok {
			continue
		}
		edge, err := graph.CreateEdgeByName("knows_"+cc.Contact.ID.String(), center, n)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%d", cc.InteractionCount))
		edge.SetPenWidth(edgeWidth(cc.InteractionCount))
	}

	pairs, err := db.ListCoParticipations(ctx, g.db, user.ID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch co-participation: %w", err)
	}
	for _, p := range pairs {
		a, okA := nodes[p.ContactA]
		b, okB := nodes[p.ContactB]
		if !okA || !okB {
			continue
		}
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_%s", p.ContactA, p.ContactB), a, b)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetStyle("dashed")
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}
