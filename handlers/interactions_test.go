// ABOUTME: Tests for interaction, resource, prompt, and graph MCP handlers
// ABOUTME: Runs the handlers against an in-memory database without an analyzer
package handlers

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/crm"
)

func TestLogInteractionHandler(t *testing.T) {
	svc, _, userID := setupTestService(t)
	contacts := NewContactHandlers(svc, userID)
	handler := NewInteractionHandlers(svc, userID)
	ctx := context.Background()

	_, ada, err := contacts.AddContact(ctx, nil, AddContactInput{Name: "Ada", FrequencyInDays: intPtr(30)})
	if err != nil {
		t.Fatalf("AddContact failed: %v", err)
	}

	_, out, err := handler.LogInteraction(ctx, nil, LogInteractionInput{
		Title:      "Coffee",
		WasAt:      "2024-05-01",
		Type:       "meeting",
		ContactIDs: []string{ada.ID},
	})
	if err != nil {
		t.Fatalf("LogInteraction failed: %v", err)
	}
	if out.Notice != crm.NoticeSaved {
		t.Errorf("Expected saved notice, got %q", out.Notice)
	}
	if out.Analysis != nil {
		t.Error("Expected no analysis without an analyzer")
	}
	if out.Interaction.Type != "meeting" {
		t.Errorf("Expected type meeting, got %q", out.Interaction.Type)
	}

	_, detail, err := handler.GetInteraction(ctx, nil, InteractionIDInput{InteractionID: out.Interaction.ID})
	if err != nil {
		t.Fatalf("GetInteraction failed: %v", err)
	}
	if detail.Notice != crm.NoticeAnalysisMissing {
		t.Errorf("Expected missing-analysis notice, got %q", detail.Notice)
	}
	if len(detail.Contacts) != 1 || detail.Contacts[0].Name != "Ada" {
		t.Errorf("Expected Ada as participant, got %+v", detail.Contacts)
	}
}

func TestLogInteractionHandlerRejectsBadInput(t *testing.T) {
	svc, _, userID := setupTestService(t)
	handler := NewInteractionHandlers(svc, userID)
	ctx := context.Background()

	cases := []LogInteractionInput{
		{},
		{Title: "x", WasAt: "yesterday"},
		{Title: "x", ContactIDs: []string{"nope"}},
		{Title: "x", Type: "party"},
	}
	for _, in := range cases {
		if _, _, err := handler.LogInteraction(ctx, nil, in); err == nil {
			t.Errorf("Expected error for %+v", in)
		}
	}
}

func TestAnalyzePendingHandlerWithoutAnalyzer(t *testing.T) {
	svc, _, userID := setupTestService(t)
	handler := NewInteractionHandlers(svc, userID)

	if _, _, err := handler.AnalyzePending(context.Background(), nil, AnalyzePendingInput{}); err == nil {
		t.Error("Expected error when no analyzer is configured")
	}
}

func TestReadResources(t *testing.T) {
	svc, _, userID := setupTestService(t)
	contacts := NewContactHandlers(svc, userID)
	handler := NewResourceHandlers(svc, userID)
	ctx := context.Background()

	_, ada, err := contacts.AddContact(ctx, nil, AddContactInput{Name: "Ada", FrequencyInDays: intPtr(7)})
	if err != nil {
		t.Fatalf("AddContact failed: %v", err)
	}

	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return handler.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("touchbase://contacts")
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	var list ListDueContactsOutput
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &list); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(list.Contacts) != 1 || list.Contacts[0].Name != "Ada" {
		t.Errorf("Unexpected contacts: %+v", list.Contacts)
	}

	res, err = read("touchbase://contacts/" + ada.ID)
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, `"status": "out_of_touch"`) {
		t.Errorf("Expected status in contact resource, got %s", res.Contents[0].Text)
	}

	res, err = read("touchbase://dashboard")
	if err != nil {
		t.Fatalf("ReadResource failed: %v", err)
	}
	if res.Contents[0].MIMEType != "application/json" {
		t.Errorf("Expected JSON, got %s", res.Contents[0].MIMEType)
	}

	if _, err := read("crm://contacts"); err == nil {
		t.Error("Expected error for foreign scheme")
	}
	if _, err := read("touchbase://deals"); err == nil {
		t.Error("Expected error for unknown resource")
	}
}

func TestGetPrompt(t *testing.T) {
	svc, _, userID := setupTestService(t)
	contacts := NewContactHandlers(svc, userID)
	handler := NewPromptHandlers(svc, userID)
	ctx := context.Background()

	_, ada, err := contacts.AddContact(ctx, nil, AddContactInput{Name: "Ada", FrequencyInDays: intPtr(7)})
	if err != nil {
		t.Fatalf("AddContact failed: %v", err)
	}

	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return handler.GetPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name, Arguments: args}})
	}

	res, err := get("contact-summary", map[string]string{"contact_id": ada.ID})
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "Name: Ada") || !strings.Contains(text, "every 7 days") {
		t.Errorf("Unexpected prompt: %s", text)
	}

	res, err = get("follow-up-suggestions", nil)
	if err != nil {
		t.Fatalf("GetPrompt failed: %v", err)
	}
	text = res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "Ada") {
		t.Errorf("Expected overdue Ada in prompt: %s", text)
	}

	if _, err := get("contact-summary", nil); err == nil {
		t.Error("Expected error without contact_id")
	}
	if _, err := get("deal-analysis", nil); err == nil {
		t.Error("Expected error for unknown prompt")
	}
	if len(handler.Prompts()) != 2 {
		t.Errorf("Expected 2 prompts, got %d", len(handler.Prompts()))
	}
}

func TestGenerateGraphHandler(t *testing.T) {
	svc, database, userID := setupTestService(t)
	contacts := NewContactHandlers(svc, userID)
	handler := NewVizHandlers(database, userID)
	ctx := context.Background()

	if _, _, err := contacts.AddContact(ctx, nil, AddContactInput{Name: "Ada"}); err != nil {
		t.Fatalf("AddContact failed: %v", err)
	}

	_, out, err := handler.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "complete"})
	if err != nil {
		t.Fatalf("GenerateGraph failed: %v", err)
	}
	if !strings.Contains(out.DOTSource, "Ada") {
		t.Errorf("Expected Ada in graph: %s", out.DOTSource)
	}

	if _, _, err := handler.GenerateGraph(ctx, nil, GenerateGraphInput{}); err == nil {
		t.Error("Expected error for missing type")
	}
	if _, _, err := handler.GenerateGraph(ctx, nil, GenerateGraphInput{Type: "pipeline"}); err == nil {
		t.Error("Expected error for unknown type")
	}
}
