// Package tui is the terminal directory browser.
//
// The model reads the shared roster.State like the web page does. Search and
// facet edits update a pending selection; the debouncer applies it off the
// event loop and delivers it back as a filterMsg through the program's Send
// function.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/roach88/staffdir/internal/clock"
	"github.com/roach88/staffdir/internal/debounce"
	"github.com/roach88/staffdir/internal/filter"
	"github.com/roach88/staffdir/internal/render"
	"github.com/roach88/staffdir/internal/roster"
)

// DarkModeStore persists the dark mode preference.
type DarkModeStore interface {
	DarkMode(ctx context.Context) (bool, error)
	ToggleDarkMode(ctx context.Context) (bool, error)
}

// Reloader refetches the data resource and republishes the snapshot.
type Reloader interface {
	Reload(ctx context.Context) (roster.Snapshot, error)
}

// Options wires a Model.
type Options struct {
	State  *roster.State
	Prefs  DarkModeStore
	Loader Reloader

	// MessagingPrefix is prepended to phone numbers in the details view.
	MessagingPrefix string

	Debounce time.Duration
	Clock    clock.Clock
	Logger   *zap.Logger
}

type mode int

const (
	modeList mode = iota
	modeDetails
)

// reloadTimeout bounds a user-triggered reload.
const reloadTimeout = 30 * time.Second

var facetLabels = map[roster.Facet]string{
	roster.FacetRank:    "الدرجة",
	roster.FacetBranch:  "الفرع",
	roster.FacetSection: "القسم",
	roster.FacetSector:  "القطاع",
}

const allLabel = "الكل"

type filterMsg struct {
	Criteria roster.Criteria
}

type darkModeMsg struct {
	on  bool
	err error
}

type reloadedMsg struct {
	count int
	err   error
}

// filterBus hands the latest selection from the event loop to the
// debouncer's timer goroutine and back.
type filterBus struct {
	mu       sync.Mutex
	criteria roster.Criteria
	send     func(tea.Msg)
}

func (b *filterBus) set(c roster.Criteria) {
	b.mu.Lock()
	b.criteria = c
	b.mu.Unlock()
}

func (b *filterBus) attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *filterBus) flush() {
	b.mu.Lock()
	c, send := b.criteria, b.send
	b.mu.Unlock()
	if send != nil {
		send(filterMsg{Criteria: c})
	}
}

// Model is the bubbletea model of the browser.
type Model struct {
	state  *roster.State
	prefs  DarkModeStore
	loader Reloader
	prefix string
	logger *zap.Logger

	keys   keyMap
	help   help.Model
	styles Styles
	dark   bool

	input    textinput.Model
	bus      *filterBus
	debounce *debounce.Debouncer

	// pending is what the user has selected, criteria what is applied.
	pending  roster.Criteria
	criteria roster.Criteria
	facet    int
	values   filter.FacetValues
	results  roster.Snapshot
	cursor   int

	mode   mode
	detail roster.EmployeeRecord

	status string
	failed bool

	width  int
	height int
}

// New builds a Model over opts.State. Call Attach before the program runs
// so debounced filter changes reach it.
func New(opts Options) Model {
	if opts.State == nil {
		opts.State = roster.NewState()
	}
	if opts.MessagingPrefix == "" {
		opts.MessagingPrefix = render.DefaultMessagingPrefix
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ti := textinput.New()
	ti.Placeholder = "بحث بالاسم"
	ti.Prompt = "/ "
	ti.Focus()

	bus := &filterBus{}
	m := Model{
		state:  opts.State,
		prefs:  opts.Prefs,
		loader: opts.Loader,
		prefix: opts.MessagingPrefix,
		logger: opts.Logger,
		keys:   defaultKeyMap(),
		help:   help.New(),
		styles: NewStyles(false),
		input:  ti,
		bus:    bus,
		debounce: debounce.New(opts.Debounce, bus.flush,
			debounce.WithClock(clock.OrSystem(opts.Clock))),
	}
	m.refresh()
	return m
}

// Attach sets the function debounced filter changes are delivered through,
// normally (*tea.Program).Send.
func (m Model) Attach(send func(tea.Msg)) {
	m.bus.attach(send)
}

// Close stops the pending filter timer.
func (m Model) Close() {
	m.debounce.Stop()
}

// Results returns the records currently listed.
func (m Model) Results() roster.Snapshot {
	return m.results
}

// Criteria returns the active filter.
func (m Model) Criteria() roster.Criteria {
	return m.criteria
}

// DarkMode reports whether the dark theme is active.
func (m Model) DarkMode() bool {
	return m.dark
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadDarkMode())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case filterMsg:
		// A selection the user has already moved past.
		if msg.Criteria != m.pending {
			return m, nil
		}
		m.criteria = msg.Criteria
		m.refresh()
		return m, nil

	case darkModeMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("dark mode: %v", msg.err))
			return m, nil
		}
		m.dark = msg.on
		m.styles = NewStyles(msg.on)
		return m, nil

	case reloadedMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("reload failed: %v", msg.err))
			return m, nil
		}
		m.setStatus(fmt.Sprintf("reloaded %d records", msg.count))
		m.refresh()
		if m.mode == modeDetails {
			m.showDetails(m.detail.ConsultantID)
		}
		return m, nil

	case tea.KeyMsg:
		if m.mode == modeDetails {
			return m.updateDetails(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.NextFacet):
		m.facet = (m.facet + 1) % len(roster.Facets)
		return m, nil
	case key.Matches(msg, m.keys.PrevFacet):
		m.facet = (m.facet + len(roster.Facets) - 1) % len(roster.Facets)
		return m, nil
	case key.Matches(msg, m.keys.NextValue):
		m.cycle(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevValue):
		m.cycle(-1)
		return m, nil
	case key.Matches(msg, m.keys.ClearFacets):
		m.applyNow(roster.Criteria{Search: m.pending.Search})
		return m, nil
	case key.Matches(msg, m.keys.ClearSearch):
		m.input.SetValue("")
		c := m.pending
		c.Search = ""
		m.applyNow(c)
		return m, nil
	case key.Matches(msg, m.keys.Open):
		if len(m.results) > 0 {
			m.showDetails(m.results[m.cursor].ConsultantID)
		}
		return m, nil
	case key.Matches(msg, m.keys.DarkMode):
		return m, m.toggleDarkMode()
	case key.Matches(msg, m.keys.Reload):
		cmd := m.reload()
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		m.pending.Search = m.input.Value()
		m.schedule()
	}
	return m, cmd
}

func (m Model) updateDetails(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.Close):
		m.Close()
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.mode = modeList
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.DarkMode):
		return m, m.toggleDarkMode()
	case key.Matches(msg, m.keys.Reload):
		cmd := m.reload()
		return m, cmd
	}
	return m, nil
}

func (m *Model) refresh() {
	snap := m.state.Snapshot()
	m.values = filter.Facets(snap)
	m.results = filter.Apply(snap, m.criteria)
	if m.cursor >= len(m.results) {
		m.cursor = max(len(m.results)-1, 0)
	}
}

// options lists the selectable values of f, "" first for "all".
func (m Model) options(f roster.Facet) []string {
	opts := []string{""}
	for _, v := range m.values[f] {
		if v != "" {
			opts = append(opts, v)
		}
	}
	return opts
}

func (m *Model) cycle(step int) {
	f := roster.Facets[m.facet]
	opts := m.options(f)
	cur := m.pending.Get(f)
	i := 0
	for j, v := range opts {
		if v == cur {
			i = j
			break
		}
	}
	i = (i + step + len(opts)) % len(opts)
	m.pending = m.pending.With(f, opts[i])
	m.schedule()
}

// schedule applies the pending selection once edits go quiet.
func (m *Model) schedule() {
	m.bus.set(m.pending)
	m.debounce.Trigger()
}

// applyNow drops any scheduled change and applies c immediately.
func (m *Model) applyNow(c roster.Criteria) {
	m.debounce.Cancel()
	m.pending, m.criteria = c, c
	m.refresh()
}

func (m *Model) showDetails(id int) {
	rec, err := m.state.Snapshot().Find(id)
	if errors.Is(err, roster.ErrNotFound) {
		m.mode = modeList
		m.input.Focus()
		m.setError(fmt.Sprintf("employee %d not found", id))
		return
	}
	m.detail = rec
	m.mode = modeDetails
	m.input.Blur()
}

func (m *Model) setStatus(s string) {
	m.status, m.failed = s, false
}

func (m *Model) setError(s string) {
	m.logger.Warn("browser error", zap.String("message", s))
	m.status, m.failed = s, true
}

func (m Model) loadDarkMode() tea.Cmd {
	if m.prefs == nil {
		return nil
	}
	prefs := m.prefs
	return func() tea.Msg {
		on, err := prefs.DarkMode(context.Background())
		return darkModeMsg{on: on, err: err}
	}
}

func (m Model) toggleDarkMode() tea.Cmd {
	if m.prefs == nil {
		on := !m.dark
		return func() tea.Msg { return darkModeMsg{on: on} }
	}
	prefs := m.prefs
	return func() tea.Msg {
		on, err := prefs.ToggleDarkMode(context.Background())
		return darkModeMsg{on: on, err: err}
	}
}

func (m *Model) reload() tea.Cmd {
	if m.loader == nil {
		m.setStatus("reload is not available")
		return nil
	}
	ld := m.loader
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		snap, err := ld.Reload(ctx)
		return reloadedMsg{count: len(snap), err: err}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.mode == modeDetails {
		return m.detailsView()
	}
	return m.listView()
}

func (m Model) listView() string {
	s := m.styles
	var b strings.Builder
	b.WriteString(s.Title.Render(render.DefaultTitle))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")
	b.WriteString(m.facetsView())
	b.WriteString("\n")
	b.WriteString(s.Count.Render(render.ResultsCount(len(m.results))))
	b.WriteString("\n\n")

	if len(m.results) == 0 {
		b.WriteString(s.Status.Render("لا توجد نتائج"))
		b.WriteString("\n")
	}
	start, end := m.window()
	for i := start; i < end; i++ {
		rec := m.results[i]
		line := fmt.Sprintf("%d  %s  %s - الأقدمية: %s", rec.ConsultantID, rec.Name, rec.CurrentRankID, rec.TimeRank)
		if i == m.cursor {
			b.WriteString(s.Selected.Render("> " + line))
		} else {
			b.WriteString(s.Row.Render("  " + line))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.footer(m.keys.listHelp()))
	return b.String()
}

func (m Model) facetsView() string {
	parts := make([]string, 0, len(roster.Facets))
	for i, f := range roster.Facets {
		v := m.pending.Get(f)
		if v == "" {
			v = allLabel
		}
		label := facetLabels[f] + ": " + v
		if i == m.facet {
			parts = append(parts, m.styles.Focused.Render(label))
		} else {
			parts = append(parts, m.styles.Facet.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// window returns the slice of results that fits the terminal, keeping the
// cursor visible.
func (m Model) window() (int, int) {
	n := len(m.results)
	if m.height == 0 {
		return 0, n
	}
	visible := max(m.height-10, 3)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	return start, min(start+visible, n)
}

func (m Model) detailsView() string {
	s := m.styles
	rec := m.detail
	lines := []string{
		s.Title.Render(rec.Name),
		s.Label.Render("الدرجة: ") + rec.CurrentRankID,
		s.Label.Render("الفرع: ") + rec.BranchName,
		s.Label.Render("الأقدمية: ") + rec.TimeRank.String(),
		s.Label.Render("الهاتف: ") + render.DisplayPhone(rec.PhoneNumber.String()),
		s.Link.Render(m.prefix + rec.PhoneNumber.String()),
	}
	var b strings.Builder
	b.WriteString(s.Card.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
	b.WriteString(m.footer(m.keys.detailsHelp()))
	return b.String()
}

func (m Model) footer(bindings []key.Binding) string {
	var b strings.Builder
	if m.status != "" {
		if m.failed {
			b.WriteString(m.styles.Error.Render(m.status))
		} else {
			b.WriteString(m.styles.Status.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(bindings))
	return b.String()
}
