package chat

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/samsaffron/quest-buddy/internal/llm"
	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/ui"
)

const (
	headerTitle    = "Meta Quest Assistant"
	headerSubtitle = "Customer Support AI"
	botLabel       = "Quest Assistant"
	userLabel      = "You"
	systemLabel    = "Info"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if chips := m.renderSuggestions(); chips != "" {
		b.WriteString(chips)
		b.WriteString("\n")
	}
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m *Model) renderHeader() string {
	return m.styles.Header.Render(headerTitle) + " " + m.styles.Muted.Render(headerSubtitle)
}

// renderSuggestions renders the topic chips while the conversation is short.
func (m *Model) renderSuggestions() string {
	if !m.showSuggestions() || len(m.suggestions) == 0 {
		return ""
	}
	lines := []string{m.styles.Muted.Render("Try asking about:")}
	for i, t := range m.suggestions {
		chip := fmt.Sprintf("%s %s",
			m.styles.Muted.Render(fmt.Sprintf("alt+%d", i+1)),
			m.styles.Chip.Render(ui.Truncate(t.Question, max(m.width-8, 10))))
		lines = append(lines, chip)
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderStatus() string {
	parts := []string{m.styles.FormatMode(m.mode == settings.ModeLocal, m.mode.Label())}

	switch {
	case m.pending:
		parts = append(parts, m.spinner.View()+" Thinking...")
	case m.loadingModel:
		parts = append(parts, m.spinner.View()+" Loading offline model...")
	}

	if m.notice != "" {
		parts = append(parts, m.styles.Notice.Render(m.notice))
	} else if !m.pending && !m.loadingModel {
		parts = append(parts, m.styles.Footer.Render("Enter send · /help commands · Ctrl+C quit"))
	}
	return strings.Join(parts, "  ")
}

// renderMessages renders the transcript for the viewport.
func (m *Model) renderMessages(width int) string {
	if width < 20 {
		width = 20
	}
	var blocks []string
	for _, msg := range m.messages {
		blocks = append(blocks, m.renderMessage(msg, width))
	}
	return strings.Join(blocks, "\n\n")
}

func (m *Model) renderMessage(msg Message, width int) string {
	var label, body string
	switch {
	case msg.IsSystem:
		label = m.styles.Muted.Render(systemLabel)
		body = ui.RenderMarkdown(msg.Text, width-2)
	case msg.IsError:
		label = m.styles.BotLabel.Render(botLabel)
		body = m.styles.Error.Render(wordwrap.String(msg.Text, width-2))
	case msg.IsBot:
		label = m.styles.BotLabel.Render(botLabel)
		body = ui.RenderMarkdown(msg.Text, width-2)
	default:
		label = m.styles.Bold.Render(userLabel)
		body = m.styles.UserMsg.Render(wordwrap.String(msg.Text, width-4))
	}
	return label + " " + m.styles.Timestamp.Render(msg.Timestamp) + "\n" + body
}

// chromeHeight is the number of lines View uses outside the viewport.
func (m *Model) chromeHeight() int {
	h := 1 + 1 + m.textarea.Height() + 1 + 1
	if m.showSuggestions() && len(m.suggestions) > 0 {
		h += 1 + len(m.suggestions)
	}
	return h
}

// refreshViewport re-renders the transcript and scrolls to the newest message.
func (m *Model) refreshViewport() {
	height := m.height - m.chromeHeight()
	if height < 3 {
		height = 3
	}
	m.viewport.Width = m.width
	m.viewport.Height = height
	m.viewport.SetContent(m.renderMessages(m.width))
	m.viewport.GotoBottom()
}

// stateLabel describes the local model for status output.
func stateLabel(state llm.LoadState) string {
	switch state {
	case llm.StateReady:
		return "ready"
	case llm.StateLoading:
		return "loading"
	case llm.StateFailed:
		return "failed (will retry)"
	default:
		return "not loaded"
	}
}
