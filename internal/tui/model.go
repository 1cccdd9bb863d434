// Package tui is the terminal catalog browser. It loads the catalog from the
// backend once and pages, searches and jumps over it locally.
package tui

import (
	"context"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/JudoboyAlex/cu-boulder-anime-database/internal/browse"
	"github.com/JudoboyAlex/cu-boulder-anime-database/pkg/catalog"
)

var (
	cBlue    = lipgloss.Color("#7aa2f7")
	cPurple  = lipgloss.Color("#bb9af7")
	cFg      = lipgloss.Color("#a9b1d6")
	cComment = lipgloss.Color("#565f89")
	cRed     = lipgloss.Color("#f7768e")
	cDark    = lipgloss.Color("#1a1b26")

	logoStyle   = lipgloss.NewStyle().Foreground(cDark).Background(cBlue).Bold(true).Padding(0, 1)
	countStyle  = lipgloss.NewStyle().Foreground(cPurple)
	idStyle     = lipgloss.NewStyle().Foreground(cComment).Width(7).Align(lipgloss.Right)
	titleStyle  = lipgloss.NewStyle().Foreground(cFg)
	urlStyle    = lipgloss.NewStyle().Foreground(cComment)
	errStyle    = lipgloss.NewStyle().Foreground(cRed).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(cComment)
	activeStyle = lipgloss.NewStyle().Foreground(cBlue).Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(cPurple).Bold(true)
)

// FetchFunc loads the catalog.
type FetchFunc func(ctx context.Context) ([]catalog.Record, error)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeJump
)

type (
	catalogLoadedMsg struct{ records []catalog.Record }
	catalogFailedMsg struct{ err error }
)

// Model is the bubbletea model of the browser.
type Model struct {
	ctx   context.Context
	fetch FetchFunc

	view    *browse.State
	spinner spinner.Model
	search  textinput.Model
	jump    textinput.Model
	mode    inputMode

	loading bool
	err     error
	width   int
	height  int
}

// New creates a browser that loads its data with fetch.
func New(ctx context.Context, fetch FetchFunc) Model {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(cBlue)),
	)

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title"
	styleInput(&search)

	jump := textinput.New()
	jump.Prompt = "Page: "
	jump.CharLimit = 6
	styleInput(&jump)

	return Model{
		ctx:     ctx,
		fetch:   fetch,
		view:    browse.New(nil),
		spinner: sp,
		search:  search,
		jump:    jump,
		loading: true,
	}
}

func styleInput(in *textinput.Model) {
	st := in.Styles()
	st.Focused.Prompt = promptStyle
	st.Blurred.Prompt = dimStyle
	in.SetStyles(st)
}

// Init starts the spinner and the catalog request.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load())
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		records, err := m.fetch(m.ctx)
		if err != nil {
			return catalogFailedMsg{err: err}
		}
		return catalogLoadedMsg{records: records}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case catalogLoadedMsg:
		m.loading = false
		m.err = nil
		m.view.Load(msg.records)
		return m, nil

	case catalogFailedMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case tea.KeyPressMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modeJump:
			return m.updateJump(msg)
		}
		return m.updateBrowse(msg)
	}

	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "r":
		if m.err != nil && !m.loading {
			m.err = nil
			m.loading = true
			return m, tea.Batch(m.spinner.Tick, m.load())
		}
	}

	if m.loading || m.err != nil {
		return m, nil
	}

	switch msg.String() {
	case "left", "h":
		m.view.Back()
	case "right", "l":
		m.view.Forward()
	case "esc", "x":
		m.search.SetValue("")
		m.view.Clear()
	case "/":
		m.mode = modeSearch
		m.search.CursorEnd()
		return m, m.search.Focus()
	case ":":
		m.mode = modeJump
		m.jump.SetValue(m.view.JumpInput())
		m.jump.CursorEnd()
		return m, m.jump.Focus()
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.mode = modeBrowse
		m.search.Blur()
		m.view.Search(m.search.Value())
		return m, nil
	case "esc":
		m.mode = modeBrowse
		m.search.Blur()
		m.search.SetValue("")
		m.view.Clear()
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateJump(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	// Leaving the box by any key commits the clamped page.
	case "enter", "tab", "esc":
		m.mode = modeBrowse
		m.jump.Blur()
		m.view.SetJumpInput(m.jump.Value())
		m.view.CommitJump()
		m.jump.SetValue(m.view.JumpInput())
		return m, nil
	}

	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

// View renders the screen.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	var b strings.Builder

	b.WriteString(logoStyle.Render("Anime Catalog"))
	if !m.loading && m.err == nil {
		b.WriteString(" ")
		b.WriteString(countStyle.Render(m.countLabel()))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View())
		b.WriteString(" Loading anime data. A cold cache can take a long time.\n")
		return b.String()
	case m.err != nil:
		b.WriteString(errStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
		b.WriteString(dimStyle.Render("r retry · q quit"))
		return b.String()
	}

	items := m.view.PageItems()
	if len(items) == 0 {
		b.WriteString(dimStyle.Render("  No anime found."))
		b.WriteString("\n")
	}
	for _, rec := range items {
		b.WriteString(idStyle.Render(fmt.Sprintf("#%d", rec.ID)))
		b.WriteString("  ")
		b.WriteString(titleStyle.Render(m.fitTitle(rec.Title)))
		if m.width == 0 || m.width > 100 {
			b.WriteString("  ")
			b.WriteString(urlStyle.Render(rec.URL))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.pagerLine())
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("   ")
	b.WriteString(m.jump.View())
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render("←/h back · →/l forward · : jump · / search · x clear · q quit"))
	return b.String()
}

// fitTitle truncates a title to the space left of the id column.
func (m Model) fitTitle(title string) string {
	if m.width == 0 {
		return title
	}
	room := m.width - 10
	if m.width > 100 {
		room = m.width / 2
	}
	if room < 10 {
		room = 10
	}
	return ansi.Truncate(title, room, "…")
}

func (m Model) countLabel() string {
	if m.view.Searching() {
		return fmt.Sprintf("%d of %d match %q", len(m.view.Active()), m.view.Total(), m.view.Query())
	}
	return fmt.Sprintf("%d titles", m.view.Total())
}

func (m Model) pagerLine() string {
	back, forward := dimStyle.Render("‹ Back"), dimStyle.Render("Forward ›")
	if m.view.CanBack() {
		back = activeStyle.Render("‹ Back")
	}
	if m.view.CanForward() {
		forward = activeStyle.Render("Forward ›")
	}
	return fmt.Sprintf("%s   Page %d of %d   %s", back, m.view.Page(), m.view.TotalPages(), forward)
}
