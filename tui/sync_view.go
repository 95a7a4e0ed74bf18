// ABOUTME: TUI view for Google sync status and controls
// ABOUTME: Displays per-account sync states and runs a sync of every linked account
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/harperreed/touchbase/db"
	"github.com/harperreed/touchbase/models"
	"github.com/harperreed/touchbase/sync"
)

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncServiceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12)

	syncAccountStyle = lipgloss.NewStyle().
				Width(32)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncStateDisplay is one account/service row of the sync view.
type SyncStateDisplay struct {
	Account      string
	Service      string
	Status       string
	LastSyncTime string
	ErrorMessage string
}

// SyncCompleteMsg is sent when a sync of every account completes.
type SyncCompleteMsg struct {
	Results []sync.AccountResult
	Err     error
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	// If no sync states, show initialization message
	if len(m.syncStates) == 0 {
		s.WriteString(syncMessageStyle.Render("No sync data found. Run 'touchbase sync init' first."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(syncHeaderStyle.Render("Account Status"))
		s.WriteString("\n\n")
		for i, state := range m.syncStates {
			s.WriteString(m.renderSyncRow(i, state))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	// Recent messages
	if len(m.syncMessages) > 0 {
		s.WriteString(syncHeaderStyle.Render("Recent Activity"))
		s.WriteString("\n\n")
		// Show last 5 messages
		start := max(len(m.syncMessages)-5, 0)
		for _, msg := range m.syncMessages[start:] {
			s.WriteString(syncMessageStyle.Render("  " + msg))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	// Help
	s.WriteString(m.renderSyncHelp())

	return s.String()
}

func (m Model) renderSyncRow(i int, state SyncStateDisplay) string {
	var row strings.Builder

	// Selection indicator
	if i == m.selectedRow {
		row.WriteString("▶ ")
		row.WriteString(syncSelectedStyle.Render(syncAccountStyle.Render(state.Account)))
	} else {
		row.WriteString("  ")
		row.WriteString(syncAccountStyle.Render(state.Account))
	}
	row.WriteString(syncServiceStyle.Render(state.Service))

	switch {
	case m.syncInProgress || state.Status == models.SyncStatusSyncing:
		row.WriteString(syncSyncingStyle.Render("  ⟳ Syncing..."))
	case state.Status == models.SyncStatusError:
		row.WriteString(syncErrorStyle.Render("  ✗ Error"))
		if state.ErrorMessage != "" {
			row.WriteString(syncErrorStyle.Render(": " + state.ErrorMessage))
		}
	default:
		row.WriteString(syncIdleStyle.Render("  ✓ Idle"))
		if state.LastSyncTime != "" {
			row.WriteString(syncMessageStyle.Render(" • Last synced " + state.LastSyncTime))
		}
	}

	return row.String()
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"↑/↓: Select account",
		"a: Sync all",
		"r: Refresh status",
		"Tab: Switch tabs",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) loadSyncStates() {
	states, err := db.GetAllSyncStates(m.ctx, m.svc.DB())
	if err != nil {
		m.err = err
		m.syncStates = nil
		return
	}
	accounts, err := db.ListSocialAccounts(m.ctx, m.svc.DB(), models.ProviderGoogle, nil)
	if err != nil {
		m.err = err
		m.syncStates = nil
		return
	}
	names := make(map[uuid.UUID]string, len(accounts))
	for _, a := range accounts {
		names[a.ID] = a.UID
	}

	m.syncStates = m.syncStates[:0]
	for _, state := range states {
		display := SyncStateDisplay{
			Account:      names[state.AccountID],
			Service:      state.Service,
			Status:       state.Status,
			ErrorMessage: state.ErrorMessage,
		}
		if state.LastSyncTime != nil {
			display.LastSyncTime = formatTimeSince(*state.LastSyncTime)
		}
		m.syncStates = append(m.syncStates, display)
	}
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedRow > 0 {
			m.selectedRow--
		}
	case "down", "j":
		if m.selectedRow < len(m.syncStates)-1 {
			m.selectedRow++
		}
	case "a":
		if m.syncInProgress {
			return m, nil
		}
		if m.syncFn == nil {
			m.addSyncMessage("Google sync is not configured")
			return m, nil
		}
		// Record the start immediately, then queue the async sync
		m.syncInProgress = true
		m.addSyncMessage("Starting sync of all accounts...")
		return m, m.syncAll()
	case "r":
		m.loadSyncStates()
	case "esc":
		m.tab = TabDue
		m.selectedRow = 0
		m.reload()
	}

	return m, nil
}

// syncAll runs the sync function off the update loop.
func (m Model) syncAll() tea.Cmd {
	ctx, fn := m.ctx, m.syncFn
	return func() tea.Msg {
		results, err := fn(ctx)
		return SyncCompleteMsg{Results: results, Err: err}
	}
}

// addSyncMessage adds a message to the sync message log.
func (m *Model) addSyncMessage(msg string) {
	timestamp := time.Now().Format("15:04:05")
	m.syncMessages = append(m.syncMessages, fmt.Sprintf("[%s] %s", timestamp, msg))
}

// handleSyncComplete handles sync completion messages.
func (m *Model) handleSyncComplete(msg SyncCompleteMsg) {
	m.syncInProgress = false

	for _, res := range msg.Results {
		if res.Err != nil {
			m.addSyncMessage(fmt.Sprintf("✗ %s sync failed: %v", res.Account.UID, res.Err))
			continue
		}
		m.addSyncMessage(fmt.Sprintf("✓ %s: %d emails, %d events, %d new interactions",
			res.Account.UID, res.Gmail.Stored, res.Calendar.Stored,
			res.Reconcile.EmailsCreated+res.Reconcile.EventsCreated))
	}
	if msg.Err != nil && len(msg.Results) == 0 {
		m.addSyncMessage(fmt.Sprintf("✗ sync failed: %v", msg.Err))
	}

	// Reload sync states
	m.loadSyncStates()
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(t time.Time) string {
	duration := time.Since(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
