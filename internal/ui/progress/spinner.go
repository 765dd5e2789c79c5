// Package progress provides progress indication for long-running
// operations like scanning large libraries.
package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/larkstead/steamfix/internal/ui/styles"
)

// statusMsg replaces the text shown next to the spinner frame.
type statusMsg string

// Spinner wraps a Bubbletea spinner for simple non-interactive use.
type Spinner struct {
	program   *tea.Program
	msgChan   chan string
	done      chan struct{}
	mu        sync.Mutex
	isRunning bool
	lastMsg   string
}

type spinnerModel struct {
	spinner spinner.Model
	message string
	msgChan chan string
}

func newSpinnerModel(message string, msgChan chan string) spinnerModel {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = styles.AccentStyle
	return spinnerModel{
		spinner: sp,
		message: message,
		msgChan: msgChan,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForMessage())
}

func (m spinnerModel) waitForMessage() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-m.msgChan
		if !ok {
			return tea.Quit()
		}
		return statusMsg(msg)
	}
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case statusMsg:
		m.message = string(msg)
		return m, m.waitForMessage()
	case tea.KeyPressMsg:
		return m, tea.Quit
	default:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
}

func (m spinnerModel) render() string {
	if m.message == "" {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.message)
}

func (m spinnerModel) View() tea.View {
	return tea.NewView(m.render())
}

// NewSpinner creates a new spinner with the given message.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		msgChan: make(chan string, 10),
		done:    make(chan struct{}),
		lastMsg: message,
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return
	}

	// Render to stderr so scan/backup output on stdout stays pipeable.
	s.program = tea.NewProgram(
		newSpinnerModel(s.lastMsg, s.msgChan),
		tea.WithoutSignalHandler(),
		tea.WithOutput(os.Stderr),
	)
	s.isRunning = true

	go func() {
		_, _ = s.program.Run()
		close(s.done)
	}()
}

// UpdateMessage changes the spinner message.
func (s *Spinner) UpdateMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		s.lastMsg = message
		return
	}

	// Non-blocking send; dropped updates are fine for a spinner, and the
	// channel close happens under this same mutex.
	select {
	case s.msgChan <- message:
	default:
	}
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.msgChan)
	s.mu.Unlock()

	if s.program != nil {
		s.program.Quit()
	}

	select {
	case <-s.done:
	case <-time.After(500 * time.Millisecond):
	}

	fmt.Fprint(os.Stderr, "\r\033[K")
}
