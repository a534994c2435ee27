package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crate/internal/services"
	"github.com/desertthunder/crate/internal/session"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	StatusView ViewState = iota
	LibraryView
)

// libraryPageSize is the number of saved tracks fetched per page.
const libraryPageSize = 50

// LibraryService fetches pages of the user's saved tracks.
//
// Implemented by [services.CatalogService].
type LibraryService interface {
	SavedTracks(ctx context.Context, accessToken string, limit, offset int) ([]services.SavedTrack, int, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx        context.Context
	view       ViewState
	controller *session.Controller
	library    LibraryService
	width      int
	height     int
	trackList  list.Model
	total      int
	busy       bool
	spinner    spinner.Model
	err        error
	help       help.Model
	keys       keyMap
}

type sessionSettledMsg struct{}

type libraryFetchedMsg struct {
	tracks []services.SavedTrack
	total  int
	err    error
}

type refreshedMsg struct {
	ok bool
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, controller *session.Controller, library LibraryService) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.ok

	return &Model{
		ctx:        ctx,
		view:       StatusView,
		controller: controller,
		library:    library,
		spinner:    sp,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by settling the session from stored tokens.
func (m *Model) Init() tea.Cmd {
	m.busy = true
	return tea.Batch(m.spinner.Tick, m.initializeSession())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.trackList.Width() == 0 {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.view {
		case StatusView:
			return m.handleStatusKeys(msg)
		case LibraryView:
			return m.handleLibraryKeys(msg)
		}

	case sessionSettledMsg:
		m.busy = false
		return m, nil

	case refreshedMsg:
		m.busy = false
		return m, nil

	case libraryFetchedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			m.view = StatusView
			return m, nil
		}
		items := make([]list.Item, len(msg.tracks))
		for i, saved := range msg.tracks {
			items[i] = savedTrackItem{saved: saved}
		}
		m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.trackList.Title = fmt.Sprintf("Saved Tracks (%d)", msg.total)
		m.trackList.SetSize(m.width-4, m.height-8)
		m.total = msg.total
		m.view = LibraryView
		return m, nil
	}

	if m.view == LibraryView {
		var cmd tea.Cmd
		m.trackList, cmd = m.trackList.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case StatusView:
		return m.renderStatus()
	case LibraryView:
		return m.renderLibrary()
	default:
		return ""
	}
}

func (m *Model) handleStatusKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if m.controller.State().Authenticated && !m.busy {
			m.busy = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.fetchLibrary())
		}
	case "r":
		if !m.busy {
			m.busy = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.refreshSession())
		}
	case "x":
		m.controller.Logout()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleLibraryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = StatusView
		return m, nil
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) initializeSession() tea.Cmd {
	return func() tea.Msg {
		m.controller.Initialize(m.ctx)
		return sessionSettledMsg{}
	}
}

func (m *Model) refreshSession() tea.Cmd {
	return func() tea.Msg {
		return refreshedMsg{ok: m.controller.Refresh(m.ctx)}
	}
}

func (m *Model) fetchLibrary() tea.Cmd {
	return func() tea.Msg {
		token := m.controller.State().AccessToken
		tracks, total, err := m.library.SavedTracks(m.ctx, token, libraryPageSize, 0)
		return libraryFetchedMsg{tracks: tracks, total: total, err: err}
	}
}

func (m *Model) renderStatus() string {
	title := styles.title.Render("Session")

	if m.busy {
		return fmt.Sprintf("%s\n%s Working...\n", title, m.spinner.View())
	}

	state := m.controller.State()

	var body string
	if state.Authenticated {
		body = styles.ok.Render("● Authenticated")
		if state.User != nil {
			body += fmt.Sprintf("\n\nUser: %s (%s)", state.User.DisplayName, state.User.ID)
			if state.User.Product != "" {
				body += fmt.Sprintf("\nPlan: %s", state.User.Product)
			}
		}
	} else {
		body = styles.warn.Render("○ Not authenticated")
		body += "\n\nRun 'crate auth login' to connect your account."
	}

	if m.err != nil {
		body += "\n\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	} else if state.Err != "" {
		body += "\n\n" + styles.err.Render(state.Err)
	}

	var helpKeys []key.Binding
	if state.Authenticated {
		helpKeys = []key.Binding{m.keys.enter, m.keys.refresh, m.keys.logout, m.keys.quit}
	} else {
		helpKeys = []key.Binding{m.keys.refresh, m.keys.quit}
	}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\n%s", title, body, helpView)
}

func (m *Model) renderLibrary() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}
