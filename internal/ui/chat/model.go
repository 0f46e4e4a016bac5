// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/loorisr/tinychat/internal/config"
	"github.com/loorisr/tinychat/internal/session"
	"github.com/loorisr/tinychat/internal/ui/components"
	"github.com/loorisr/tinychat/internal/ui/styles"
)

// =============================================================================
// LAYOUT
// =============================================================================

const (
	inputHeight   = 3
	inputChrome   = 2 // input border
	statusHeight  = 1
	noticeHeight  = 1
	minViewHeight = 3
)

// =============================================================================
// MODEL
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Session *session.Session
	Config  *config.Config
	Theme   *styles.Theme
	Fetch   ModelFetcher
	Logger  *zap.Logger
}

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	session *session.Session
	cfg     *config.Config
	theme   *styles.Theme
	keys    KeyMap
	fetch   ModelFetcher
	log     *zap.Logger

	// Components
	input      textarea.Model
	viewport   viewport.Model
	spinner    spinner.Model
	status     *components.StatusBar
	transcript *components.Transcript
	history    *components.HistoryList

	// State
	width       int
	height      int
	ready       bool
	showHistory bool
	notice      string
	noticeIsErr bool

	// Render throttling
	limiter     *rate.Limiter
	dirty       bool
	tickPending bool
}

// New creates the chat model.
func New(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(cfg.UI.Theme)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	ta := textarea.New()
	ta.Placeholder = "Send a message..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := &Model{
		session:    opts.Session,
		cfg:        cfg,
		theme:      theme,
		keys:       DefaultKeyMap(),
		fetch:      opts.Fetch,
		log:        log,
		input:      ta,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		status:     components.NewStatusBar(theme),
		transcript: components.NewTranscript(theme, components.NewMarkdown(theme.IsDark, cfg.UI.CodeTheme)),
		history:    components.NewHistoryList(theme),
		limiter:    rate.NewLimiter(rate.Every(renderInterval), 1),
	}
	m.status.ShowStats = cfg.UI.ShowStats
	m.status.Hint = "ctrl+o history · tab model"
	return m
}

// Init starts the cursor blink, the spinner and the first model list request.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		fetchModelsCmd(m.fetch, m.cfg.RequestTimeout()),
	)
}

// Session returns the wrapped session.
func (m *Model) Session() *session.Session { return m.session }

// Notice returns the message shown above the input, if any.
func (m *Model) Notice() string { return m.notice }

// HistoryOpen reports whether the history pane is shown.
func (m *Model) HistoryOpen() bool { return m.showHistory }

func (m *Model) setNotice(text string, isErr bool) {
	m.notice = text
	m.noticeIsErr = isErr
}

func (m *Model) clearNotice() {
	m.notice = ""
	m.noticeIsErr = false
}

// resize lays out the components for the current window size.
func (m *Model) resize() {
	m.input.SetWidth(m.width - inputChrome)
	vh := m.height - inputHeight - inputChrome - statusHeight - noticeHeight
	if vh < minViewHeight {
		vh = minViewHeight
	}
	m.viewport.Width = m.width
	m.viewport.Height = vh
	m.status.Width = m.width
	m.history.Width = m.width * 2 / 3
	m.history.Height = vh
	m.ready = true
	m.refreshViewport()
}

// refreshViewport re-renders the transcript, following the tail when the
// view was already at the bottom.
func (m *Model) refreshViewport() {
	m.dirty = false
	if !m.ready {
		return
	}
	follow := m.viewport.AtBottom()
	m.viewport.SetContent(m.transcript.Render(m.session.Messages(), m.width))
	if follow || m.session.Generating() {
		m.viewport.GotoBottom()
	}
}

// requestRender renders now if the limiter allows, otherwise defers to the
// next render tick.
func (m *Model) requestRender() tea.Cmd {
	m.dirty = true
	if m.limiter.AllowN(time.Now(), 1) {
		m.refreshViewport()
		return nil
	}
	if m.tickPending {
		return nil
	}
	m.tickPending = true
	return renderTickCmd()
}

// syncStatus copies session state into the status bar.
func (m *Model) syncStatus() {
	m.status.Status = m.session.Status()
	m.status.Model = m.session.Model()
	m.status.Perf = m.session.Performance()
	m.status.Generating = m.session.Generating()
	m.status.Spinner = m.spinner.View()
}
