package ui

import (
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"go22dos/internal/config"
	"go22dos/internal/nav"
	"go22dos/internal/storage"
)

// Model adapts a nav.Machine to Bubble Tea. All state lives in the machine
// and the store; the model only translates key messages and renders.
type Model struct {
	store   *storage.Store
	machine *nav.Machine
	logger  *log.Logger
	styles  styles
	input   textinput.Model
	help    help.Model
	width   int
	err     error
}

type Option func(*Model)

func WithLogger(l *log.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewModel builds the model for store. path is where quitting saves it.
func NewModel(store *storage.Store, cfg config.Config, path string, opts ...Option) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  store,
		logger: log.New(io.Discard),
		styles: newStyles(cfg.Theme),
		input:  ti,
		help:   help.New(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.machine = nav.New(store, nav.NewKeyMap(cfg.Keys), path, nav.WithLogger(m.logger))
	return m
}

// Run drives the terminal until the user quits. A store failure ends the
// program and is returned.
func Run(store *storage.Store, cfg config.Config, path string, opts ...Option) error {
	m := NewModel(store, cfg, path, opts...)
	program := tea.NewProgram(m, tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok && fm.err != nil {
		return fm.err
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

// Err reports the failure that stopped the model, if any.
func (m Model) Err() error { return m.err }

func (m Model) Machine() *nav.Machine { return m.machine }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.input.Width = max(msg.Width-10, 10)
	default:
		// Cursor blink ticks.
		if m.machine.Screen() == nav.ScreenInput {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.err != nil {
		return m, tea.Quit
	}
	if msg.Type == tea.KeyCtrlC {
		m.logger.Warn("interrupted, quitting without saving")
		return m, tea.Quit
	}

	if msg.Paste && m.machine.Screen() != nav.ScreenInput {
		m.logger.Debug("paste ignored outside text input", "screen", m.machine.Screen())
		return m, nil
	}

	for _, name := range keyNames(msg) {
		eff, err := m.machine.Handle(name)
		if err != nil {
			m.logger.Error("store failure", "err", err)
			m.err = err
			return m, tea.Quit
		}
		if eff == nav.EffectQuit {
			return m, tea.Quit
		}
	}
	cmd := m.syncInput()
	return m, cmd
}

// keyNames splits a message into the key names the machine understands.
// Pasted or fast-typed text arrives as one message with several runes.
func keyNames(msg tea.KeyMsg) []string {
	if msg.Type == tea.KeyRunes && !msg.Alt && (msg.Paste || len(msg.Runes) > 1) {
		names := make([]string, len(msg.Runes))
		for i, r := range msg.Runes {
			names[i] = string(r)
		}
		return names
	}
	return []string{msg.String()}
}

// syncInput mirrors the machine's buffer into the text input. The returned
// command keeps the cursor blinking while input is open.
func (m *Model) syncInput() tea.Cmd {
	if m.machine.Screen() != nav.ScreenInput {
		m.input.Blur()
		m.input.SetValue("")
		return nil
	}
	if m.machine.Target() == nav.TargetTopic {
		m.input.Placeholder = "Topic name"
	} else {
		m.input.Placeholder = "Item text"
	}
	cmd := m.input.Focus()
	m.input.SetValue(m.machine.Buffer())
	m.input.CursorEnd()
	return cmd
}
