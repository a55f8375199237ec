package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/jwulff/steno/journal/internal/journal"
	"github.com/jwulff/steno/journal/internal/recognition"
	"github.com/jwulff/steno/journal/internal/transcript"
	"github.com/jwulff/steno/journal/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	// DefaultSettleDelay is how long processing waits for trailing
	// recognizer callbacks before the entry is built.
	DefaultSettleDelay = 500 * time.Millisecond

	storeTimeout  = 5 * time.Second
	probeTimeout  = 3 * time.Second
)

// RecordingState is the lifecycle state. The Model is its only writer.
// A start waiting on microphone access is still idle; recording begins only
// once access is granted.
type RecordingState string

const (
	StateIdle       RecordingState = "idle"
	StateRecording  RecordingState = "recording"
	StateProcessing RecordingState = "processing"
)

type support int

const (
	supportUnknown support = iota
	supportAvailable
	supportMissing
)

// EntryStore persists finished entries.
type EntryStore interface {
	LoadAll(ctx context.Context) []journal.Entry
	Append(ctx context.Context, e journal.Entry) error
}

// Options wires the Model to its collaborators.
type Options struct {
	Engine      recognition.Engine
	Gate        recognition.AccessGate
	Store       EntryStore
	Locale      string
	SettleDelay time.Duration
	Layout      journal.Layout
	Log         *zap.Logger
}

// Model is the root bubbletea model. It owns the recording lifecycle:
// idle -> recording -> processing -> idle.
type Model struct {
	// Collaborators
	engine  recognition.Engine
	gate    recognition.AccessGate
	store   EntryStore
	session *recognition.Session
	acc     *transcript.Accumulator
	log     *zap.Logger

	settleDelay time.Duration
	layout      journal.Layout
	now         func() time.Time

	// Lifecycle
	state          RecordingState
	mood           journal.Mood
	support        support
	awaitingAccess bool
	cancelAccess   context.CancelFunc
	attempt        int
	finalized      string
	capturedAt     time.Time

	// Entries
	entries  []journal.Entry
	selected int
	expanded bool

	// Errors
	errorMessage   string
	errorTransient bool

	// UI state
	width  int
	height int
}

// New creates an idle Model.
func New(opts Options) Model {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	delay := opts.SettleDelay
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return Model{
		engine:      opts.Engine,
		gate:        opts.Gate,
		store:       opts.Store,
		session:     recognition.NewSession(opts.Engine, opts.Locale, log),
		acc:         transcript.New(),
		log:         log.Named("lifecycle"),
		settleDelay: delay,
		layout:      opts.Layout,
		now:         time.Now,
		state:       StateIdle,
		mood:        journal.MoodDefault,
	}
}

// Init probes the speech engine and loads stored entries.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		checkSupportCmd(m.engine),
		loadEntriesCmd(m.store),
	)
}

// Shutdown abandons a pending access request and stops any live recognition
// stream. It is called when the program exits without going through the quit
// key.
func (m Model) Shutdown() {
	m.abandonAccess()
	m.session.Stop()
}

// checkSupportCmd asks the engine whether recognition is usable on this host.
func checkSupportCmd(engine recognition.Engine) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
		defer cancel()
		return SupportCheckedMsg{Err: engine.Available(ctx)}
	}
}

// requestAccessCmd asks the gate for microphone access for start attempt.
// The consent prompt may stay open indefinitely; ctx is cancelled only when
// the attempt is abandoned.
func requestAccessCmd(ctx context.Context, gate recognition.AccessGate, attempt int) tea.Cmd {
	return func() tea.Msg {
		return PermissionResultMsg{Attempt: attempt, Err: gate.RequestAccess(ctx)}
	}
}

// readEventCmd reads the next event from the stream of generation gen. A
// closed channel is reported as end-of-stream.
func readEventCmd(events <-chan recognition.Event, gen uint64) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return RecognitionMsg{Gen: gen, Event: recognition.Event{End: true}}
		}
		return RecognitionMsg{Gen: gen, Event: ev}
	}
}

// settleCmd fires after the settle delay.
func settleCmd(delay time.Duration, attempt int) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return SettleMsg{Attempt: attempt}
	})
}

// loadEntriesCmd reads the stored entries.
func loadEntriesCmd(store EntryStore) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return EntriesLoadedMsg{Entries: store.LoadAll(ctx)}
	}
}

// saveEntryCmd appends a finished entry to the store.
func saveEntryCmd(store EntryStore, entry journal.Entry) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return EntrySavedMsg{Entry: entry, Err: store.Append(ctx, entry)}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SupportCheckedMsg:
		if msg.Err != nil {
			m.log.Warn("speech recognition unavailable", zap.Error(msg.Err))
			m.support = supportMissing
			m.errorMessage = recognition.UnsupportedMessage
			m.errorTransient = false
			return m, nil
		}
		m.support = supportAvailable
		return m, nil

	case PermissionResultMsg:
		return m.handlePermission(msg)

	case RecognitionMsg:
		return m.handleRecognition(msg)

	case SettleMsg:
		return m.handleSettle(msg)

	case EntriesLoadedMsg:
		m.entries = msg.Entries
		m.clampSelection()
		return m, nil

	case EntrySavedMsg:
		if msg.Err != nil {
			m.log.Error("save entry", zap.String("id", msg.Entry.ID), zap.Error(msg.Err))
			m.errorMessage = "Could not save entry: " + msg.Err.Error()
			m.errorTransient = true
			return m, clearTransientErrorCmd()
		}
		m.entries = append([]journal.Entry{msg.Entry}, m.entries...)
		if m.selected > 0 {
			m.selected++
		}
		return m, nil

	case SelectEntryMsg:
		for i, e := range m.entries {
			if e.ID == msg.ID {
				m.selected = i
				m.expanded = true
				break
			}
		}
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// startRecording handles a start request. It is a no-op unless idle with a
// usable recognizer and no access request pending.
func (m Model) startRecording() (tea.Model, tea.Cmd) {
	if m.state != StateIdle || m.awaitingAccess || m.support != supportAvailable {
		return m, nil
	}

	m.errorMessage = ""
	m.errorTransient = false
	m.acc.Reset()
	m.finalized = ""
	m.attempt++
	m.awaitingAccess = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelAccess = cancel
	m.log.Info("start requested", zap.Int("attempt", m.attempt))
	return m, requestAccessCmd(ctx, m.gate, m.attempt)
}

// abandonAccess releases the context of the pending access request.
func (m *Model) abandonAccess() {
	if m.cancelAccess != nil {
		m.cancelAccess()
		m.cancelAccess = nil
	}
}

// stopRecording handles a stop request. It cancels a pending access request
// and is otherwise a no-op unless recording.
func (m Model) stopRecording() (tea.Model, tea.Cmd) {
	if m.awaitingAccess {
		// Nothing was captured yet; the pending permission result is
		// dropped when it arrives.
		m.attempt++
		m.awaitingAccess = false
		m.abandonAccess()
		m.log.Info("start cancelled before access was granted")
		return m, nil
	}
	if m.state != StateRecording {
		return m, nil
	}

	m.session.Stop()
	m.finalized = m.acc.Finalize()
	m.capturedAt = m.now()
	m.state = StateProcessing
	m.mood = journal.MoodDefault
	m.log.Info("stop requested", zap.Int("chars", len(m.finalized)))
	return m, settleCmd(m.settleDelay, m.attempt)
}

func (m Model) handlePermission(msg PermissionResultMsg) (tea.Model, tea.Cmd) {
	if msg.Attempt != m.attempt || m.state != StateIdle || !m.awaitingAccess {
		m.log.Debug("dropping stale permission result", zap.Int("attempt", msg.Attempt))
		return m, nil
	}
	m.awaitingAccess = false
	m.abandonAccess()

	if msg.Err != nil {
		accessErr := recognition.AsAccessError(msg.Err)
		m.log.Warn("microphone access failed", zap.String("kind", string(accessErr.Kind)), zap.Error(msg.Err))
		m.session.Revoke()
		m.errorMessage = accessErr.Message()
		m.errorTransient = false
		return m, nil
	}

	m.session.Grant()
	if err := m.session.Start(); err != nil {
		m.log.Error("start recognition", zap.Error(err))
		m.errorMessage = err.Error()
		return m, nil
	}
	m.state = StateRecording
	m.mood = journal.MoodExpressing
	return m, readEventCmd(m.session.Events(), m.session.Generation())
}

func (m Model) handleRecognition(msg RecognitionMsg) (tea.Model, tea.Cmd) {
	recording := m.state == StateRecording
	out := m.session.Handle(msg.Gen, msg.Event, recording)

	switch {
	case out.Stale, out.Ended:
		return m, nil

	case out.Fatal != nil:
		m.acc.Reset()
		m.state = StateIdle
		m.mood = journal.MoodDefault
		m.errorMessage = out.Fatal.Message()
		m.errorTransient = false
		return m, nil

	case out.Restarted:
		return m, readEventCmd(m.session.Events(), m.session.Generation())
	}

	m.acc.Apply(out.Fragments)
	return m, readEventCmd(m.session.Events(), msg.Gen)
}

func (m Model) handleSettle(msg SettleMsg) (tea.Model, tea.Cmd) {
	if m.state != StateProcessing || msg.Attempt != m.attempt {
		return m, nil
	}

	m.state = StateIdle
	m.mood = journal.MoodDefault
	text := m.finalized
	m.finalized = ""

	if text == "" {
		m.log.Info("empty transcript, no entry")
		return m, nil
	}
	entry := journal.NewEntry(text, m.capturedAt, m.layout)
	return m, saveEntryCmd(m.store, entry)
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper, KeyCtrlC:
		m.abandonAccess()
		m.session.Stop()
		return m, tea.Quit

	case KeySpace:
		if m.state == StateIdle && !m.awaitingAccess {
			return m.startRecording()
		}
		return m.stopRecording()

	case KeyJ, KeyDown:
		if m.selected < len(m.entries)-1 {
			m.selected++
			m.expanded = false
		}
		return m, nil

	case KeyK, KeyUp:
		if m.selected > 0 {
			m.selected--
			m.expanded = false
		}
		return m, nil

	case KeyEnter:
		if m.selected < len(m.entries) {
			m.expanded = !m.expanded
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.entries) {
		m.selected = max(0, len(m.entries)-1)
		m.expanded = false
	}
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTranscript())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderEntries())

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("JOURNAL")
	mood := fmt.Sprintf("%s %s %s", m.mood.Emoji, m.mood.Label, renderMeter(m.mood.Intensity))
	return title + "  " + mood
}

func (m Model) renderStatusBar() string {
	switch {
	case m.support == supportMissing:
		return ui.IdleDotStyle.Render("○ UNAVAILABLE")
	case m.awaitingAccess:
		return ui.IdleDotStyle.Render("○ Requesting microphone access...")
	case m.state == StateRecording:
		return ui.RecordingDotStyle.Render("● REC")
	case m.state == StateProcessing:
		return ui.ProcessingDotStyle.Render("◌ SAVING")
	default:
		return ui.IdleDotStyle.Render("○ IDLE")
	}
}

// renderMeter draws a 0-100 intensity as a ten-cell bar.
func renderMeter(intensity int) string {
	const barLen = 10
	filled := min(max(intensity*barLen/100, 0), barLen)
	return ui.MeterFullStyle.Render(strings.Repeat("█", filled)) +
		ui.MeterEmptyStyle.Render(strings.Repeat("░", barLen-filled))
}

func (m Model) renderTranscript() string {
	width := max(10, m.width-4)
	header := ui.PanelTitleStyle.Render("TRANSCRIPT")

	if m.state != StateRecording {
		if m.state == StateProcessing && m.finalized != "" {
			lines := []string{header}
			for _, l := range wrapText(m.finalized, width) {
				lines = append(lines, "  "+l)
			}
			return strings.Join(lines, "\n")
		}
		return header + "\n" + ui.DimStyle.Render("  Press Space to start speaking")
	}

	settled := m.acc.Settled()
	tentative := m.acc.Tentative()
	if settled == "" && tentative == "" {
		return header + "\n" + ui.DimStyle.Render("  Listening...")
	}

	lines := []string{header}
	for _, l := range wrapStyled(settled, tentative, width) {
		lines = append(lines, "  "+l)
	}
	lines[len(lines)-1] += ui.TentativeTextStyle.Render("▌")
	return strings.Join(lines, "\n")
}

func (m Model) renderEntries() string {
	header := ui.PanelTitleStyle.Render(fmt.Sprintf("ENTRIES (%d)", len(m.entries)))
	lines := []string{header}

	if len(m.entries) == 0 {
		lines = append(lines, ui.DimStyle.Render("  No entries yet"))
		return strings.Join(lines, "\n")
	}

	now := m.now()
	for i, e := range m.entries {
		isSelected := i == m.selected
		marker := "▸"
		if isSelected && m.expanded {
			marker = "▾"
		}

		when := ui.TimestampStyle.Render(fmt.Sprintf("%s %s · %s",
			e.DisplayDate, e.DisplayTime, humanize.RelTime(e.CreatedAt, now, "ago", "from now")))
		mood := ui.MoodStyle(e.MoodColor).Render(e.MoodLabel)

		var line string
		if isSelected {
			line = ui.SelectedStyle.Render("> "+marker+" ") + when + " " + mood
		} else {
			line = "  " + marker + " " + when + " " + mood
		}
		lines = append(lines, line)

		if isSelected && m.expanded {
			for _, wl := range wrapText(e.Snippet, max(10, m.width-6)) {
				lines = append(lines, "    "+wl)
			}
			if e.HasAudio {
				lines = append(lines, ui.DimStyle.Render("    ♪ audio"))
			}
			continue
		}
		lines = append(lines, truncateToWidth(ui.DimStyle.Render("    "+e.Snippet), m.width))
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	switch {
	case m.support != supportAvailable:
	case m.awaitingAccess:
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Cancel"))
	case m.state == StateIdle:
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Record"))
	case m.state == StateRecording:
		parts = append(parts, ui.FooterKeyStyle.Render("Space")+ui.FooterDescStyle.Render(" Stop"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("j/k")+ui.FooterDescStyle.Render(" Nav"))
	parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Detail"))
	parts = append(parts, ui.FooterKeyStyle.Render("q")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

// Helpers

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	return ansi.Truncate(s, width, "…")
}

// wrapStyled wraps settled followed by tentative, rendering the tentative
// words in the tentative style.
func wrapStyled(settled, tentative string, width int) []string {
	plain := strings.Fields(settled)
	words := append(plain, strings.Fields(tentative)...)

	var lines []string
	var current string
	currentWidth := 0
	for i, word := range words {
		w := len([]rune(word))
		styled := word
		if i >= len(plain) {
			styled = ui.TentativeTextStyle.Render(word)
		}
		switch {
		case currentWidth == 0:
			current, currentWidth = styled, w
		case currentWidth+1+w <= width:
			current += " " + styled
			currentWidth += 1 + w
		default:
			lines = append(lines, current)
			current, currentWidth = styled, w
		}
	}
	return append(lines, current)
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len([]rune(current))+1+len([]rune(word)) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}
