// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Provides an interactive full-screen view of due contacts, interactions, and sync
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/crm"
	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
	"github.com/harperreed/touchbase/sync"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewEdit
	ViewGraph
	ViewConfirmDelete
)

// Tab is one of the list view tabs
type Tab int

const (
	TabDue Tab = iota
	TabContacts
	TabInteractions
	TabSync
)

var tabNames = []string{"Due", "Contacts", "Interactions", "Sync"}

// SyncFunc syncs every linked account.
type SyncFunc func(ctx context.Context) ([]sync.AccountResult, error)

// Model is the main bubbletea model
type Model struct {
	ctx    context.Context
	svc    *crm.Service
	userID uuid.UUID
	syncFn SyncFunc

	viewMode ViewMode
	tab      Tab

	// List view state
	selectedRow  int
	due          []db.DueContact
	contacts     []db.DueContact
	interactions []models.Interaction

	// Detail view state
	selectedID        uuid.UUID
	contactDetail     *crm.ContactDetail
	interactionDetail *crm.InteractionView

	// Edit view state
	editing    bool
	formInputs []textinput.Model
	focusIndex int

	// Graph view state
	graphDOT string

	// Sync view state
	syncStates     []SyncStateDisplay
	syncMessages   []string
	syncInProgress bool

	// UI state
	message string
	width   int
	height  int
	err     error
}

// NewModel creates a new TUI model; a nil syncFn disables syncing from the UI.
func NewModel(ctx context.Context, svc *crm.Service, userID uuid.UUID, syncFn SyncFunc) Model {
	m := Model{
		ctx:      ctx,
		svc:      svc,
		userID:   userID,
		syncFn:   syncFn,
		viewMode: ViewList,
		tab:      TabDue,
		width:    80,
		height:   24,
	}
	m.reload()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case SyncCompleteMsg:
		m.handleSyncComplete(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewList:
		return m.renderListView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewGraph:
		return m.renderGraphView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		// Form fields take every printable key.
		if m.viewMode != ViewEdit {
			return m, tea.Quit
		}
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewGraph:
		return m.handleGraphKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	}

	return m, nil
}

// reload refreshes the data behind the current tab.
func (m *Model) reload() {
	m.err = nil
	switch m.tab {
	case TabDue:
		out := models.StatusOutOfTouch
		overview, err := m.svc.ContactOverview(m.ctx, m.userID, &out)
		if err != nil {
			m.err = err
			return
		}
		m.due = overview.Contacts
	case TabContacts:
		all, err := db.ContactUrgencies(m.ctx, m.svc.DB(), m.userID, m.svc.Now())
		if err != nil {
			m.err = err
			return
		}
		m.contacts = all
	case TabInteractions:
		interactions, err := m.svc.ListInteractions(m.ctx, m.userID)
		if err != nil {
			m.err = err
			return
		}
		m.interactions = interactions
	case TabSync:
		m.loadSyncStates()
	}
	if n := m.rowCount(); m.selectedRow >= n {
		m.selectedRow = max(n-1, 0)
	}
}

func (m Model) rowCount() int {
	switch m.tab {
	case TabDue:
		return len(m.due)
	case TabContacts:
		return len(m.contacts)
	case TabInteractions:
		return len(m.interactions)
	case TabSync:
		return len(m.syncStates)
	}
	return 0
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 2)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Padding(0, 2)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))
)
