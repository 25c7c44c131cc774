package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/quest-buddy/internal/exitcode"
	"github.com/samsaffron/quest-buddy/internal/llm"
	"github.com/samsaffron/quest-buddy/internal/ui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var askText bool

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question and print the answer",
	Long: `Ask the assistant one question using the current answering mode.

Examples:
  quest-buddy ask "How do I set up my Quest?"
  quest-buddy ask "Battery drains fast" --text`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVarP(&askText, "text", "t", false, "Output plain text instead of rendered markdown")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	useGlamour := !askText && term.IsTerminal(int(os.Stdout.Fd()))
	return askWith(ctx, a.dispatcher, question, cmd.OutOrStdout(), useGlamour)
}

// askWith dispatches question once and prints the reply. An error reply is
// printed like any other and reported through the exit code.
func askWith(ctx context.Context, d *llm.Dispatcher, question string, w io.Writer, useGlamour bool) error {
	var resp llm.Response
	if useGlamour {
		r, err := waitWithSpinner(ctx, func() llm.Response { return d.Generate(ctx, question) })
		if err != nil {
			return err
		}
		resp = r
	} else {
		resp = d.Generate(ctx, question)
	}

	if ctx.Err() != nil {
		return exitcode.Cancel()
	}

	if useGlamour && !resp.Error {
		fmt.Fprintln(w, ui.RenderMarkdown(resp.Text, terminalWidth()))
	} else {
		fmt.Fprintln(w, resp.Text)
	}

	if resp.Error {
		return exitcode.Failed(fmt.Sprintf("assistant error (%s)", llm.Kind(resp.Err)))
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// waitModel shows a spinner until the reply arrives.
type waitModel struct {
	spinner spinner.Model
	result  <-chan llm.Response
	resp    llm.Response
	done    bool
	aborted bool
}

type replyMsg llm.Response

func newWaitModel(result <-chan llm.Response) waitModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return waitModel{spinner: s, result: result}
}

func (m waitModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForReply(m.result))
}

func waitForReply(result <-chan llm.Response) tea.Cmd {
	return func() tea.Msg {
		return replyMsg(<-result)
	}
}

func (m waitModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "esc" {
			m.aborted = true
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case replyMsg:
		m.resp = llm.Response(msg)
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m waitModel) View() string {
	if m.done || m.aborted {
		return ""
	}
	return m.spinner.View() + " Thinking..."
}

// waitWithSpinner runs generate in the background with a spinner on the tty.
func waitWithSpinner(ctx context.Context, generate func() llm.Response) (llm.Response, error) {
	result := make(chan llm.Response, 1)
	go func() { result <- generate() }()

	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return <-result, nil
	}
	defer tty.Close()

	p := tea.NewProgram(newWaitModel(result), tea.WithInput(tty), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return llm.Response{}, exitcode.Cancel()
		}
		return llm.Response{}, err
	}
	m := final.(waitModel)
	if m.aborted {
		return llm.Response{}, exitcode.Cancel()
	}
	return m.resp, nil
}
