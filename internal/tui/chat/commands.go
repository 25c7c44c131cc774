package chat

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"
	"github.com/samsaffron/quest-buddy/internal/llm"
	"github.com/samsaffron/quest-buddy/internal/settings"
	"github.com/samsaffron/quest-buddy/internal/topics"
)

// Command represents a slash command
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
}

// AllCommands returns all available slash commands
func AllCommands() []Command {
	return []Command{
		{
			Name:        "help",
			Aliases:     []string{"h", "?"},
			Description: "Show help and available commands",
			Usage:       "/help",
		},
		{
			Name:        "clear",
			Aliases:     []string{"c"},
			Description: "Start the conversation over",
			Usage:       "/clear",
		},
		{
			Name:        "mode",
			Aliases:     []string{"m"},
			Description: "Show or switch how questions are answered",
			Usage:       "/mode [remote|local]",
		},
		{
			Name:        "load",
			Description: "Load the offline model now",
			Usage:       "/load",
		},
		{
			Name:        "topic",
			Aliases:     []string{"t"},
			Description: "Ask a common question (fuzzy matched)",
			Usage:       "/topic <query>",
		},
		{
			Name:        "quit",
			Aliases:     []string{"q", "exit"},
			Description: "Exit chat",
			Usage:       "/quit",
		},
	}
}

// CommandSource implements fuzzy.Source for command searching
type CommandSource []Command

func (c CommandSource) String(i int) string {
	return c[i].Name
}

func (c CommandSource) Len() int {
	return len(c)
}

// FilterCommands returns commands matching the query using fuzzy search
func FilterCommands(query string) []Command {
	commands := AllCommands()
	query = strings.ToLower(strings.TrimPrefix(query, "/"))
	if query == "" {
		return commands
	}

	// Exact names and aliases win outright.
	for _, cmd := range commands {
		if cmd.Name == query {
			return []Command{cmd}
		}
		for _, alias := range cmd.Aliases {
			if alias == query {
				return []Command{cmd}
			}
		}
	}

	var result []Command
	for _, cmd := range commands {
		if strings.HasPrefix(cmd.Name, query) {
			result = append(result, cmd)
		}
	}
	if len(result) > 0 {
		return result
	}

	// Fuzzy search on command names
	for _, match := range fuzzy.FindFrom(query, CommandSource(commands)) {
		result = append(result, commands[match.Index])
	}
	return result
}

// topicSource matches against both topic IDs and questions.
type topicSource []topics.Topic

func (s topicSource) String(i int) string {
	return s[i].ID + " " + s[i].Question
}

func (s topicSource) Len() int {
	return len(s)
}

// MatchTopic returns the best topic for query.
func MatchTopic(query string) (topics.Topic, bool) {
	if t, ok := topics.Lookup(query); ok {
		return t, true
	}
	all := topics.All()
	matches := fuzzy.FindFrom(strings.ToLower(strings.TrimSpace(query)), topicSource(all))
	if len(matches) == 0 {
		return topics.Topic{}, false
	}
	return all[matches[0].Index], true
}

// ExecuteCommand handles slash command execution
func (m *Model) ExecuteCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	m.setTextareaValue("")

	cmdName := strings.TrimPrefix(parts[0], "/")
	args := parts[1:]

	matches := FilterCommands(cmdName)
	switch {
	case len(matches) == 0:
		return m.showSystemMessage(fmt.Sprintf("Unknown command: /%s\nType /help for available commands.", cmdName))
	case len(matches) > 1:
		var names []string
		for _, c := range matches {
			names = append(names, "/"+c.Name)
		}
		return m.showSystemMessage(fmt.Sprintf("Ambiguous command: /%s\nDid you mean: %s?", cmdName, strings.Join(names, ", ")))
	}

	switch matches[0].Name {
	case "help":
		return m.cmdHelp()
	case "clear":
		return m.cmdClear()
	case "mode":
		return m.cmdMode(args)
	case "load":
		return m.cmdLoad()
	case "topic":
		return m.cmdTopic(args)
	case "quit":
		return m.cmdQuit()
	default:
		return m.showSystemMessage(fmt.Sprintf("Command /%s is not yet implemented.", matches[0].Name))
	}
}

// Command implementations

func (m *Model) showSystemMessage(content string) (tea.Model, tea.Cmd) {
	m.appendMessage(NewSystemMessage(content, m.now()))
	return m, nil
}

func (m *Model) cmdHelp() (tea.Model, tea.Cmd) {
	var b strings.Builder
	b.WriteString("## Available Commands\n\n")

	for _, cmd := range AllCommands() {
		b.WriteString(fmt.Sprintf("- **%s**", cmd.Usage))
		if len(cmd.Aliases) > 0 {
			b.WriteString(fmt.Sprintf(" (aliases: %s)", strings.Join(cmd.Aliases, ", ")))
		}
		b.WriteString(fmt.Sprintf(": %s\n", cmd.Description))
	}

	b.WriteString("\n## Keyboard Shortcuts\n\n")
	b.WriteString("- `Enter` - Send message\n")
	b.WriteString("- `Ctrl+J` or `Alt+Enter` - Insert newline\n")
	b.WriteString("- `Alt+1`..`Alt+3` - Ask a suggested question\n")
	b.WriteString("- `PgUp`/`PgDn` - Scroll\n")
	b.WriteString("- `Esc` - Stop waiting for a reply\n")
	b.WriteString("- `Ctrl+C` - Quit\n")

	return m.showSystemMessage(b.String())
}

func (m *Model) cmdClear() (tea.Model, tea.Cmd) {
	m.messages = []Message{WelcomeMessage(m.now())}
	m.refreshViewport()
	return m, nil
}

func (m *Model) cmdQuit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

func (m *Model) cmdMode(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		mode := m.assistant.Mode(m.ctx)
		return m.showSystemMessage(fmt.Sprintf("Answering with **%s**. Offline model: %s.\n\nSwitch with `/mode remote` or `/mode local`.",
			mode.Label(), stateLabel(m.assistant.LocalState())))
	}

	mode, err := settings.ParseModeStrict(args[0])
	if err != nil {
		return m.showSystemMessage(fmt.Sprintf("Unknown mode %q. Use `remote` or `local`.", args[0]))
	}
	if err := settings.SetMode(m.ctx, m.store, mode); err != nil {
		return m.showSystemMessage(fmt.Sprintf("Could not save mode: %v", err))
	}
	m.mode = mode

	text := fmt.Sprintf("Switched to **%s**.", mode.Label())
	if mode == settings.ModeRemote && !settings.HasAPIKey(m.ctx, m.store) {
		text += " No API key is set yet; run `quest-buddy settings` to add one."
	}
	if mode == settings.ModeLocal && m.assistant.LocalState() != llm.StateReady {
		text += " The offline model loads on the first question, or now with `/load`."
	}
	return m.showSystemMessage(text)
}

func (m *Model) cmdLoad() (tea.Model, tea.Cmd) {
	if m.assistant.LocalState() == llm.StateReady {
		return m, m.setNotice("Offline model is already loaded.")
	}
	if m.loadingModel {
		return m, m.setNotice(NoticeLoading)
	}
	m.loadingModel = true
	return m, tea.Batch(m.setNotice(NoticeLoading), m.spinner.Tick, m.loadModelCmd())
}

func (m *Model) cmdTopic(args []string) (tea.Model, tea.Cmd) {
	if len(args) == 0 {
		var b strings.Builder
		b.WriteString("## Common questions\n\n")
		for _, t := range topics.All() {
			b.WriteString(fmt.Sprintf("- `%s`: %s\n", t.ID, t.Question))
		}
		return m.showSystemMessage(b.String())
	}

	topic, ok := MatchTopic(strings.Join(args, " "))
	if !ok {
		return m.showSystemMessage(fmt.Sprintf("No topic matches %q. Type `/topic` to list them.", strings.Join(args, " ")))
	}
	return m.submit(topic.Question)
}

// loadModelCmd runs the local load off the UI goroutine.
func (m *Model) loadModelCmd() tea.Cmd {
	ctx := m.ctx
	assistant := m.assistant
	return func() tea.Msg {
		start := time.Now()
		ok := assistant.EnsureLocalLoaded(ctx)
		return modelLoadedMsg{ok: ok, elapsed: time.Since(start)}
	}
}
