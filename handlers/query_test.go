// ABOUTME: Tests for the universal query tool handler
// ABOUTME: Covers contact, interaction, and co-participant queries with filters
package handlers

import (
	"context"
	"testing"
)

type queryFixture struct {
	handler *QueryHandlers
	ada     string
	grace   string
	linus   string
}

func setupQueryFixture(t *testing.T) queryFixture {
	t.Helper()
	svc, _, userID := setupTestService(t)
	contacts := NewContactHandlers(svc, userID)
	interactions := NewInteractionHandlers(svc, userID)
	ctx := context.Background()

	add := func(name string, every int) string {
		_, out, err := contacts.AddContact(ctx, nil, AddContactInput{Name: name, FrequencyInDays: intPtr(every)})
		if err != nil {
			t.Fatalf("AddContact failed: %v", err)
		}
		return out.ID
	}
	f := queryFixture{
		handler: NewQueryHandlers(svc, userID),
		ada:     add("Ada Lovelace", 30),
		grace:   add("Grace Hopper", 7),
		linus:   add("Linus Torvalds", 90),
	}

	logs := []LogInteractionInput{
		{Title: "Coffee", WasAt: "2024-05-01", Type: "meeting", ContactIDs: []string{f.ada, f.grace}},
		{Title: "Standup notes", WasAt: "2024-05-10", Type: "note", ContactIDs: []string{f.ada, f.grace, f.linus}},
		{Title: "Kernel question", Description: "About the scheduler", WasAt: "2024-05-12", Type: "email", ContactIDs: []string{f.linus}},
	}
	for _, in := range logs {
		if _, _, err := interactions.LogInteraction(ctx, nil, in); err != nil {
			t.Fatalf("LogInteraction failed: %v", err)
		}
	}
	return f
}

func TestQueryContacts(t *testing.T) {
	f := setupQueryFixture(t)
	ctx := context.Background()

	_, out, err := f.handler.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "contact", Query: "ada"})
	if err != nil {
		t.Fatalf("QueryCRM failed: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("Expected 1 contact, got %d", out.Count)
	}
	if c, ok := out.Results[0].(ContactOutput); !ok || c.Name != "Ada Lovelace" {
		t.Errorf("Expected Ada Lovelace, got %+v", out.Results[0])
	}

	_, out, err = f.handler.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "contact",
		Query:      "grace",
		Filters:    map[string]any{"status": "out_of_touch"},
	})
	if err != nil {
		t.Fatalf("QueryCRM failed: %v", err)
	}
	if out.Count != 1 {
		t.Fatalf("Expected 1 overdue contact, got %d", out.Count)
	}
	if c, ok := out.Results[0].(DueContactOutput); !ok || c.Status != "out_of_touch" {
		t.Errorf("Expected out_of_touch Grace, got %+v", out.Results[0])
	}

	if _, _, err := f.handler.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "contact",
		Filters:    map[string]any{"status": "asleep"},
	}); err == nil {
		t.Error("Expected error for unknown status")
	}
}

func TestQueryInteractions(t *testing.T) {
	f := setupQueryFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input QueryCRMInput
		want  int
	}{
		{"all", QueryCRMInput{}, 3},
		{"by type", QueryCRMInput{Filters: map[string]any{"type": "meeting"}}, 1},
		{"since", QueryCRMInput{Filters: map[string]any{"since": "2024-05-05"}}, 2},
		{"by contact", QueryCRMInput{Filters: map[string]any{"contact_id": f.linus}}, 2},
		{"by text", QueryCRMInput{Query: "scheduler"}, 1},
		{"limit", QueryCRMInput{Limit: 2}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.EntityType = "interaction"
			_, out, err := f.handler.QueryCRM(ctx, nil, tt.input)
			if err != nil {
				t.Fatalf("QueryCRM failed: %v", err)
			}
			if out.Count != tt.want {
				t.Errorf("Expected %d interactions, got %d", tt.want, out.Count)
			}
		})
	}

	if _, _, err := f.handler.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "interaction",
		Filters:    map[string]any{"contact_id": "nope"},
	}); err == nil {
		t.Error("Expected error for invalid contact_id")
	}
}

func TestQueryCoParticipants(t *testing.T) {
	f := setupQueryFixture(t)
	ctx := context.Background()

	_, out, err := f.handler.QueryCRM(ctx, nil, QueryCRMInput{
		EntityType: "co_participant",
		Filters:    map[string]any{"contact_id": f.ada},
	})
	if err != nil {
		t.Fatalf("QueryCRM failed: %v", err)
	}
	if out.Count != 2 {
		t.Fatalf("Expected 2 co-participants, got %d", out.Count)
	}
	first, ok := out.Results[0].(CoParticipantOutput)
	if !ok {
		t.Fatalf("Unexpected result type %T", out.Results[0])
	}
	if first.ContactID != f.grace || first.Name != "Grace Hopper" || first.Count != 2 {
		t.Errorf("Expected Grace with 2 shared interactions first, got %+v", first)
	}

	if _, _, err := f.handler.QueryCRM(ctx, nil, QueryCRMInput{EntityType: "co_participant"}); err == nil {
		t.Error("Expected error without contact_id")
	}
}

func TestQueryRejectsUnknownEntity(t *testing.T) {
	f := setupQueryFixture(t)

	if _, _, err := f.handler.QueryCRM(context.Background(), nil, QueryCRMInput{EntityType: "deal"}); err == nil {
		t.Error("Expected error for unknown entity type")
	}
}
