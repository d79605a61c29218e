package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/anonyfiles-go/internal/job"
	"github.com/raphaelgruber/anonyfiles-go/internal/models"
	"golang.org/x/term"
)

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

// Style functions for dynamic theming
func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// runFunc runs one operation through the controller.
type runFunc func(ctx context.Context) (models.JobResult, error)

// snapshotMsg carries a store update for the observed operation.
type snapshotMsg job.Snapshot

// finishedMsg carries the outcome of the operation.
type finishedMsg struct {
	result models.JobResult
	err    error
}

// progressModel is the bubbletea model observing one operation slot.
type progressModel struct {
	op       models.Operation
	snap     job.Snapshot
	spinner  spinner.Model
	theme    Theme
	started  time.Time
	result   models.JobResult
	done     bool
	quitting bool
	err      error
}

// newProgressModel creates a new progress model.
func newProgressModel(op models.Operation) progressModel {
	return progressModel{
		op:      op,
		snap:    job.Snapshot{Operation: op, Phase: job.PhaseSubmitting, Loading: true},
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		theme:   defaultTheme,
		started: time.Now(),
	}
}

// Init starts the spinner.
func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case snapshotMsg:
		if msg.Operation == m.op {
			m.snap = job.Snapshot(msg)
		}
		return m, nil

	case finishedMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.done || m.quitting {
		return m.finalView()
	}

	status := m.theme.statusStyle().Render(fmt.Sprintf("[%s]", m.snap.Phase))
	line := fmt.Sprintf("%s %s %s", m.spinner.View(), status, phaseLine(m.snap))
	elapsed := time.Since(m.started).Round(time.Second)

	hint := m.theme.hintStyle().Render("Press Ctrl+C to stop waiting")
	return fmt.Sprintf("%s (%s)\n%s\n", line, elapsed, hint)
}

// finalView renders the completion message.
func (m progressModel) finalView() string {
	if m.quitting {
		if m.snap.JobID != "" {
			msg := fmt.Sprintf("\nStopped waiting. Job %s continues on the server.\nUse 'anonyfiles status %s' to check it.\n",
				m.snap.JobID, m.snap.JobID)
			return m.theme.hintStyle().Render(msg)
		}
		return m.theme.hintStyle().Render("\nCancelled.\n")
	}

	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("✗ %s failed: %s", m.op, errorText(m.err))) + "\n"
	}

	return m.theme.completedStyle().Render("✓ Completed") + "\n" + summary(m.result)
}

// phaseLine describes the current phase of an operation.
func phaseLine(s job.Snapshot) string {
	switch s.Phase {
	case job.PhaseSubmitting:
		return "uploading..."
	case job.PhasePolling:
		status := string(s.LastStatus)
		if status == "" {
			status = "unknown"
		}
		return fmt.Sprintf("job %s %s (%d polls)", models.ShortID(s.JobID), status, s.Polls)
	case job.PhaseDone:
		return "done"
	case job.PhaseFailed:
		return s.Error
	default:
		return ""
	}
}

// summary renders the derived statistics of a result.
func summary(r models.JobResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  Lines:        %d\n", r.LineCount())
	fmt.Fprintf(&b, "  Characters:   %d\n", r.CharCount())
	if r.Operation == models.OperationAnonymize {
		fmt.Fprintf(&b, "  Replacements: %d (%d rules)\n", r.TotalReplacements(), len(r.AuditLog))
	}
	if r.JobID != "" {
		fmt.Fprintf(&b, "  Job:          %s\n", r.JobID)
	}
	return b.String()
}

// errorText returns the message shown for a failed operation.
func errorText(err error) string {
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}

// useTUI reports whether the interactive progress view can be shown.
func useTUI(plain bool) bool {
	return !plain && term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// runWithProgress runs an operation while showing its progress. With plain
// output, phase changes are printed as lines to w instead.
func runWithProgress(ctx context.Context, store *job.Store, op models.Operation, plain bool, w io.Writer, run runFunc) (models.JobResult, error) {
	if !useTUI(plain) {
		return runPlain(ctx, store, op, w, run)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(op))
	unsubscribe := store.Subscribe(func(s job.Snapshot) {
		if s.Operation == op {
			p.Send(snapshotMsg(s))
		}
	})
	defer unsubscribe()

	outcome := make(chan finishedMsg, 1)
	go func() {
		result, err := run(ctx)
		msg := finishedMsg{result: result, err: err}
		outcome <- msg
		p.Send(msg)
	}()

	final, err := p.Run()
	if err != nil {
		cancel()
		<-outcome
		return models.JobResult{}, fmt.Errorf("progress UI error: %w", err)
	}

	// Leaving the view early stops polling; the job itself stays on the server.
	cancel()
	res := <-outcome
	if m, ok := final.(progressModel); ok && m.quitting {
		return models.JobResult{}, errInterrupted
	}
	return res.result, res.err
}

// errInterrupted signals that the user stopped waiting; it is not reported as an error.
var errInterrupted = errors.New("interrupted")

// runPlain prints phase transitions as log lines. Ctrl+C cancels the context.
func runPlain(ctx context.Context, store *job.Store, op models.Operation, w io.Writer, run runFunc) (models.JobResult, error) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var (
		last       = job.PhaseIdle
		lastStatus models.JobStatus
		jobID      string
	)
	unsubscribe := store.Subscribe(func(s job.Snapshot) {
		if s.Operation != op {
			return
		}
		if s.JobID != "" {
			jobID = s.JobID
		}
		if s.Phase == last && s.LastStatus == lastStatus {
			return
		}
		last, lastStatus = s.Phase, s.LastStatus
		switch s.Phase {
		case job.PhaseSubmitting:
			fmt.Fprintf(w, "%s: uploading\n", op)
		case job.PhasePolling:
			fmt.Fprintf(w, "%s: %s\n", op, phaseLine(s))
		}
	})
	defer unsubscribe()

	result, err := run(ctx)
	if err != nil && ctx.Err() != nil && jobID != "" {
		fmt.Fprintf(w, "Stopped waiting. Job %s continues on the server.\n", jobID)
		return models.JobResult{}, errInterrupted
	}
	return result, err
}
