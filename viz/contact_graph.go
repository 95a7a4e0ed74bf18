// ABOUTME: Contact network graph built from shared interactions
// ABOUTME: Renders contacts as nodes colored by status and co-participation as weighted edges
package viz

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
)

type GraphGenerator struct {
	db  *sql.DB
	now func() time.Time
}

func NewGraphGenerator(database *sql.DB) *GraphGenerator {
	return &GraphGenerator{db: database, now: time.Now}
}

var statusColors = map[models.ContactStatus]string{
	models.StatusOutOfTouch: "lightcoral",
	models.StatusInTouch:    "lightgreen",
	models.StatusHidden:     "lightgrey",
}

// GenerateContactGraph renders the co-participation network of the user's contacts.
// With contactID set, only that contact and the people it shared interactions with are drawn.
func (g *GraphGenerator) GenerateContactGraph(ctx context.Context, userID uuid.UUID, contactID *uuid.UUID) (string, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create graphviz instance: %w", err)
	}
	defer func() { _ = gv.Close() }()

	graph, err := gv.Graph()
	if err != nil {
		return "", fmt.Errorf("failed to create graph: %w", err)
	}
	defer func() { _ = graph.Close() }()

	graph.SetLayout("neato")
	graph.SetRankDir(cgraph.LRRank)

	pairs, err := db.ListCoParticipations(ctx, g.db, userID)
	if err != nil {
		return "", fmt.Errorf("failed to fetch co-participation: %w", err)
	}
	if contactID != nil {
		pairs = touching(pairs, *contactID)
	}

	contacts, err := g.contactsByID(ctx, userID)
	if err != nil {
		return "", err
	}

	nodes := make(map[uuid.UUID]*cgraph.Node)
	node := func(id uuid.UUID) (*cgraph.Node, error) {
		if n, ok := nodes[id]; ok {
			return n, nil
		}
		n, err := graph.CreateNodeByName("contact_" + id.String())
		if err != nil {
			return nil, fmt.Errorf("failed to create contact node: %w", err)
		}
		styleContactNode(n, contacts[id])
		nodes[id] = n
		return n, nil
	}

	if contactID != nil {
		if _, ok := contacts[*contactID]; !ok {
			return "", fmt.Errorf("contact %s: %w", contactID, db.ErrNotFound)
		}
		if _, err := node(*contactID); err != nil {
			return "", err
		}
	}

	for _, p := range pairs {
		a, err := node(p.ContactA)
		if err != nil {
			return "", err
		}
		b, err := node(p.ContactB)
		if err != nil {
			return "", err
		}
		edge, err := graph.CreateEdgeByName(fmt.Sprintf("%s_%s", p.ContactA, p.ContactB), a, b)
		if err != nil {
			return "", fmt.Errorf("failed to create edge: %w", err)
		}
		edge.SetLabel(fmt.Sprintf("%d", p.Count))
		edge.SetPenWidth(edgeWidth(p.Count))
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.String(), nil
}

type graphContact struct {
	contact models.Contact
	status  models.ContactStatus
}

func (g *GraphGenerator) contactsByID(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]graphContact, error) {
	all, err := db.ContactUrgencies(ctx, g.db, userID, g.now())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	out := make(map[uuid.UUID]graphContact, len(all))
	for _, dc := range all {
		out[dc.Contact.ID] = graphContact{contact: dc.Contact, status: dc.Status}
	}
	return out, nil
}

func styleContactNode(n *cgraph.Node, gc graphContact) {
	name := gc.contact.Name
	if name == "" {
		name = "Unknown"
	}
	n.SetLabel(name)
	n.SetShape("ellipse")
	n.SetStyle("filled")
	n.SetFillColor(statusColors[gc.status])
}

func touching(pairs []db.CoParticipation, id uuid.UUID) []db.CoParticipation {
	var out []db.CoParticipation
	for _, p := range pairs {
		if p.ContactA == id || p.ContactB == id {
			out = append(out, p)
		}
	}
	return out
}

// edgeWidth grows with shared interactions and caps at 6.
func edgeWidth(count int) float64 {
	return min(1+float64(count)/2, 6)
}
