// ABOUTME: MCP server subcommand
// ABOUTME: Starts the MCP server with contact, interaction, and graph tools on stdio
package cli

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/touchbase/handlers"
)

// Version is reported by the MCP server and the version flag.
const Version = "0.2.0"

// NewMCPServer registers every tool, prompt, and resource for the current user.
func NewMCPServer(ctx context.Context, app *App) (*mcp.Server, error) {
	user, err := app.User(ctx)
	if err != nil {
		return nil, err
	}

	contactHandlers := handlers.NewContactHandlers(app.Service, user.ID)
	interactionHandlers := handlers.NewInteractionHandlers(app.Service, user.ID)
	vizHandlers := handlers.NewVizHandlers(app.DB, user.ID)
	queryHandlers := handlers.NewQueryHandlers(app.Service, user.ID)
	promptHandlers := handlers.NewPromptHandlers(app.Service, user.ID)
	resourceHandlers := handlers.NewResourceHandlers(app.Service, user.ID)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "touchbase",
		Version: Version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_contact",
		Description: "Add a new contact, optionally with a desired check-in cadence in days",
	}, contactHandlers.AddContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_contact",
		Description: "Update an existing contact's information; omitted fields are kept",
	}, contactHandlers.UpdateContact)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_contacts",
		Description: "Search for contacts by name or email",
	}, contactHandlers.FindContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_contact_status",
		Description: "Show a contact's touch status, urgency, due date, and recent interactions",
	}, contactHandlers.GetContactStatus)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_due_contacts",
		Description: "List tracked contacts by urgency, optionally filtered by status (out_of_touch, in_touch, hidden)",
	}, contactHandlers.ListDueContacts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_touchpoint",
		Description: "Record that you were just in touch with a contact",
	}, contactHandlers.AddTouchpoint)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "log_interaction",
		Description: "Log an interaction with one or more contacts; it is analyzed when an API key is configured",
	}, interactionHandlers.LogInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_interaction",
		Description: "Show an interaction with its participants and analysis",
	}, interactionHandlers.GetInteraction)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_pending",
		Description: "Analyze interactions that have participants but no analysis yet",
	}, interactionHandlers.AnalyzePending)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_crm",
		Description: "Query contacts, interactions, or the contacts someone is usually seen with, with optional filters",
	}, queryHandlers.QueryCRM)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_graph",
		Description: "Generate a GraphViz DOT graph of the contact network (contacts or complete)",
	}, vizHandlers.GenerateGraph)

	for _, prompt := range promptHandlers.Prompts() {
		server.AddPrompt(prompt, promptHandlers.GetPrompt)
	}

	server.AddResource(&mcp.Resource{
		URI:         "touchbase://contacts",
		Name:        "contacts",
		Description: "Tracked contacts with status counts",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResource(&mcp.Resource{
		URI:         "touchbase://dashboard",
		Name:        "dashboard",
		Description: "Due, recent, and frequent contacts plus follow-ups",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "touchbase://contacts/{id}",
		Name:        "contact",
		Description: "One contact with status and interactions",
		MIMEType:    "application/json",
	}, resourceHandlers.ReadResource)

	return server, nil
}

// MCPCommand starts the MCP server on stdio
func MCPCommand(ctx context.Context, app *App) error {
	app.Logger.Info("starting MCP server")

	server, err := NewMCPServer(ctx, app)
	if err != nil {
		return err
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}
