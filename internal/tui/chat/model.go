package chat

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/samsaffron/quest-buddy/internal/llm"
	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/topics"
	"github.com/samsaffron/quest-buddy/internal/ui"
)

// Transient notices shown in the status line.
const (
	NoticeLoading       = "Loading offline model... This may take a moment."
	NoticeLoaded        = "Offline model loaded successfully!"
	NoticeLoadFailed    = "Failed to load offline model. Please try again."
	NoticeFailed        = "Failed to generate AI response. Please try again."
	NoticeKeyRejected   = "API key rejected and cleared. Run quest-buddy settings to add a new one."
	NoticeNotConfigured = "No API key set. Run quest-buddy settings to add one."
	NoticeCancelled     = "Stopped waiting for the reply."
)

// NoticeDuration is how long a transient notice stays visible.
const NoticeDuration = 4 * time.Second

// SuggestionCount is how many topic chips are offered.
const SuggestionCount = 3

// chipsUntil hides the chips once the conversation reaches this many messages.
const chipsUntil = 3

// Assistant answers messages and exposes the mode and local model controls.
// *llm.Dispatcher satisfies it.
type Assistant interface {
	Generate(ctx context.Context, message string) llm.Response
	Mode(ctx context.Context) settings.Mode
	EnsureLocalLoaded(ctx context.Context) bool
	LocalState() llm.LoadState
}

// Options configures a chat Model.
type Options struct {
	Assistant Assistant
	Store     settings.Store
	Styles    *ui.Styles
	Now       func() time.Time
}

type responseMsg struct {
	id      int
	resp    llm.Response
	elapsed time.Duration
}

type modelLoadedMsg struct {
	ok      bool
	elapsed time.Duration
}

type clearNoticeMsg struct {
	id int
}

// Model is the Bubble Tea model for the support chat.
type Model struct {
	ctx       context.Context
	assistant Assistant
	store     settings.Store
	styles    *ui.Styles
	now       func() time.Time

	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model

	messages    []Message
	suggestions []topics.Topic

	// mode is the displayed mode. Dispatch reads the store itself.
	mode settings.Mode

	// Only one request is outstanding at a time; requestID discards
	// replies to requests the user stopped waiting for.
	pending       bool
	requestID     int
	requestCancel context.CancelFunc
	loadingModel  bool

	notice   string
	noticeID int

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates a chat model. The conversation starts with the welcome message.
func New(ctx context.Context, opts Options) *Model {
	ta := textarea.New()
	ta.Placeholder = "Type your question here..."
	ta.ShowLineNumbers = false
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(2)
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("ctrl+j", "alt+enter"))
	ta.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	styles := opts.Styles
	if styles == nil {
		styles = ui.DefaultStyles()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	m := &Model{
		ctx:         ctx,
		assistant:   opts.Assistant,
		store:       opts.Store,
		styles:      styles,
		now:         now,
		textarea:    ta,
		viewport:    viewport.New(80, 20),
		spinner:     sp,
		suggestions: topics.Suggestions(SuggestionCount),
		width:       80,
		height:      24,
	}
	m.messages = []Message{WelcomeMessage(m.now())}
	m.refreshMode()
	m.refreshViewport()
	return m
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

// Messages returns a copy of the transcript.
func (m *Model) Messages() []Message {
	return append([]Message(nil), m.messages...)
}

// Pending reports whether a reply is outstanding.
func (m *Model) Pending() bool {
	return m.pending
}

// Notice returns the transient notice currently shown, if any.
func (m *Model) Notice() string {
	return m.notice
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case spinner.TickMsg, clearNoticeMsg:
	default:
		m.refreshMode()
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case responseMsg:
		return m.handleResponse(msg)

	case modelLoadedMsg:
		return m.handleModelLoaded(msg)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.pending && !m.loadingModel {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.cancelPending()
		m.quitting = true
		return m, tea.Quit

	case "esc":
		if m.pending {
			m.cancelPending()
			return m, m.setNotice(NoticeCancelled)
		}
		return m, nil

	case "enter":
		return m.submit(m.textarea.Value())

	case "alt+1", "alt+2", "alt+3":
		idx := int(msg.String()[len("alt+")] - '1')
		if !m.showSuggestions() || idx >= len(m.suggestions) {
			return m, nil
		}
		return m.submit(m.suggestions[idx].Question)

	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// submit sends text as a user message. Empty input and input typed while a
// reply is outstanding are ignored.
func (m *Model) submit(text string) (tea.Model, tea.Cmd) {
	if strings.TrimSpace(text) == "" || m.pending {
		return m, nil
	}
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		return m.ExecuteCommand(strings.TrimSpace(text))
	}

	m.setTextareaValue("")
	m.appendMessage(NewUserMessage(text, m.now()))
	m.pending = true
	m.requestID++
	return m, tea.Batch(m.spinner.Tick, m.generateCmd(m.requestID, text))
}

// generateCmd asks the assistant off the UI goroutine.
func (m *Model) generateCmd(id int, text string) tea.Cmd {
	ctx, cancel := context.WithCancel(m.ctx)
	m.requestCancel = cancel
	assistant := m.assistant
	return func() tea.Msg {
		defer cancel()
		start := time.Now()
		resp := assistant.Generate(ctx, text)
		return responseMsg{id: id, resp: resp, elapsed: time.Since(start)}
	}
}

func (m *Model) cancelPending() {
	if m.requestCancel != nil {
		m.requestCancel()
		m.requestCancel = nil
	}
	m.pending = false
}

func (m *Model) handleResponse(msg responseMsg) (tea.Model, tea.Cmd) {
	if !m.pending || msg.id != m.requestID {
		log.Debug().Int("request", msg.id).Msg("dropping reply to abandoned request")
		return m, nil
	}
	m.pending = false
	m.requestCancel = nil
	m.appendMessage(NewBotMessage(msg.resp.Text, msg.resp.Error, m.now()))

	if !msg.resp.Error {
		log.Debug().Dur("elapsed", msg.elapsed).Msg("reply received")
		return m, nil
	}
	return m, m.setNotice(noticeFor(msg.resp))
}

func noticeFor(resp llm.Response) string {
	switch llm.Kind(resp.Err) {
	case "not_configured":
		return NoticeNotConfigured
	case "invalid_credential":
		return NoticeKeyRejected
	case "load":
		return NoticeLoadFailed
	default:
		return NoticeFailed
	}
}

func (m *Model) handleModelLoaded(msg modelLoadedMsg) (tea.Model, tea.Cmd) {
	m.loadingModel = false
	if !msg.ok {
		return m, m.setNotice(NoticeLoadFailed)
	}
	log.Info().Dur("elapsed", msg.elapsed).Msg("offline model ready")
	return m, m.setNotice(NoticeLoaded)
}

// setNotice shows text in the status line and schedules its removal.
func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	id := m.noticeID
	return tea.Tick(NoticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}

// refreshMode re-reads the mode shown in the status line.
func (m *Model) refreshMode() {
	if m.assistant != nil {
		m.mode = m.assistant.Mode(m.ctx)
	}
}

func (m *Model) showSuggestions() bool {
	return conversationLen(m.messages) < chipsUntil
}

func (m *Model) appendMessage(msg Message) {
	m.messages = append(m.messages, msg)
	m.refreshViewport()
}

func (m *Model) setTextareaValue(value string) {
	m.textarea.SetValue(value)
	m.textarea.CursorEnd()
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
	m.textarea.SetWidth(width)
	m.refreshViewport()
}
