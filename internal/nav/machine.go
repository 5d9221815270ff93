// Package nav implements the modal key-driven navigation over the topic
// store: a splash screen, the topic list, the item list of one topic and a
// text input mode for new topics and items.
//
// Selections are positions, so every bound is read from the store at the
// moment it is needed and selections are clamped after each mutation.
package nav

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/log"

	"go22dos/internal/storage"
)

type Screen int

const (
	ScreenStart Screen = iota
	ScreenTopics
	ScreenItems
	ScreenInput
)

func (s Screen) String() string {
	switch s {
	case ScreenStart:
		return "start"
	case ScreenTopics:
		return "topics"
	case ScreenItems:
		return "items"
	case ScreenInput:
		return "input"
	default:
		return fmt.Sprintf("screen(%d)", int(s))
	}
}

// Target says what a committed text input creates.
type Target int

const (
	TargetTopic Target = iota
	TargetItem
)

type Effect int

const (
	EffectNone Effect = iota
	EffectQuit
)

// Store is the part of *storage.Store the machine drives.
type Store interface {
	AddTopic(id string) error
	DeleteTopic(topic int) error
	AddItem(topic int, item storage.Item) error
	DeleteItem(topic, index int) (storage.Item, error)
	ToggleItem(topic, index int) (storage.Item, error)
	TopicCount() (int, error)
	ItemCount(topic int) (int, error)
	Save(path string) error
}

// Error wraps a store failure with the screen and command that caused it.
type Error struct {
	Screen  Screen
	Command string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Screen, e.Command, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Machine struct {
	store  Store
	keys   KeyMap
	path   string
	logger *log.Logger

	screen     Screen
	target     Target
	topicSel   int
	itemSel    int
	pendingTop bool
	buf        []rune
	status     string
}

type Option func(*Machine)

func WithLogger(l *log.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New returns a machine on the start screen. path is where quit saves the
// store.
func New(store Store, keys KeyMap, path string, opts ...Option) *Machine {
	m := &Machine{
		store:  store,
		keys:   keys,
		path:   path,
		logger: log.New(io.Discard),
		screen: ScreenStart,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Machine) Screen() Screen { return m.screen }
func (m *Machine) Target() Target { return m.target }
func (m *Machine) TopicSelection() int { return m.topicSel }
func (m *Machine) ItemSelection() int { return m.itemSel }
func (m *Machine) Buffer() string { return string(m.buf) }
func (m *Machine) Status() string { return m.status }
func (m *Machine) Keys() KeyMap { return m.keys }
func (m *Machine) ChordPending() bool { return m.pendingTop }
func (m *Machine) DataPath() string { return m.path }

// Bindings lists the commands available on the current screen.
func (m *Machine) Bindings() []key.Binding {
	k := m.keys
	switch m.screen {
	case ScreenStart:
		return []key.Binding{k.GoToTopics, k.Quit}
	case ScreenTopics:
		return []key.Binding{k.Down, k.Up, k.Top, k.Bottom, k.Select, k.Append, k.Delete, k.Exit, k.Quit}
	case ScreenItems:
		return []key.Binding{k.Down, k.Up, k.Top, k.Bottom, k.Toggle, k.Append, k.Delete, k.Exit}
	case ScreenInput:
		return []key.Binding{k.Commit, k.Backspace}
	}
	return nil
}

// Handle consumes one key. A non-nil error is a store failure the machine
// does not recover from.
func (m *Machine) Handle(name string) (Effect, error) {
	k := Key(name)
	if m.screen == ScreenInput {
		return EffectNone, m.handleInput(k)
	}
	if m.pendingTop {
		// The key after the first half of the chord is always consumed.
		m.pendingTop = false
		if key.Matches(k, m.keys.Top) {
			m.selectFirst()
		}
		return EffectNone, nil
	}
	switch m.screen {
	case ScreenStart:
		return m.handleStart(k)
	case ScreenTopics:
		return m.handleTopics(k)
	case ScreenItems:
		return EffectNone, m.handleItems(k)
	}
	return EffectNone, nil
}

func (m *Machine) handleStart(k Key) (Effect, error) {
	switch {
	case key.Matches(k, m.keys.GoToTopics):
		m.setScreen(ScreenTopics)
		return EffectNone, m.clampTopics("go to topics")
	case key.Matches(k, m.keys.Quit):
		return m.quit()
	}
	return EffectNone, nil
}

func (m *Machine) handleTopics(k Key) (Effect, error) {
	const screen = ScreenTopics
	switch {
	case key.Matches(k, m.keys.Quit):
		return m.quit()
	case key.Matches(k, m.keys.Down):
		n, err := m.topicCount("down")
		if err != nil {
			return EffectNone, err
		}
		if m.topicSel < n-1 {
			m.topicSel++
		}
	case key.Matches(k, m.keys.Up):
		if m.topicSel > 0 {
			m.topicSel--
		}
	case key.Matches(k, m.keys.Top):
		m.pendingTop = true
	case key.Matches(k, m.keys.Bottom):
		n, err := m.topicCount("last")
		if err != nil {
			return EffectNone, err
		}
		m.topicSel = max(n-1, 0)
	case key.Matches(k, m.keys.Select):
		n, err := m.topicCount("select")
		if err != nil {
			return EffectNone, err
		}
		if n == 0 {
			m.status = "No topics"
			return EffectNone, nil
		}
		m.itemSel = 0
		m.setScreen(ScreenItems)
		m.status = ""
	case key.Matches(k, m.keys.Append):
		m.startInput(TargetTopic)
	case key.Matches(k, m.keys.Delete):
		n, err := m.topicCount("delete")
		if err != nil {
			return EffectNone, err
		}
		if n == 0 {
			m.status = "No topics"
			return EffectNone, nil
		}
		if err := m.store.DeleteTopic(m.topicSel); err != nil {
			return EffectNone, &Error{Screen: screen, Command: "delete topic", Err: err}
		}
		m.topicSel = 0
		m.status = "Deleted topic"
		return EffectNone, m.clampTopics("delete topic")
	case key.Matches(k, m.keys.Exit):
		m.setScreen(ScreenStart)
		m.status = ""
	}
	return EffectNone, nil
}

func (m *Machine) handleItems(k Key) error {
	const screen = ScreenItems
	switch {
	case key.Matches(k, m.keys.Down):
		n, err := m.itemCount("down")
		if err != nil {
			return err
		}
		if m.itemSel < n-1 {
			m.itemSel++
		}
	case key.Matches(k, m.keys.Up):
		if m.itemSel > 0 {
			m.itemSel--
		}
	case key.Matches(k, m.keys.Top):
		m.pendingTop = true
	case key.Matches(k, m.keys.Bottom):
		n, err := m.itemCount("last")
		if err != nil {
			return err
		}
		m.itemSel = max(n-1, 0)
	case key.Matches(k, m.keys.Toggle):
		n, err := m.itemCount("toggle")
		if err != nil {
			return err
		}
		if n == 0 {
			m.status = "No items"
			return nil
		}
		it, err := m.store.ToggleItem(m.topicSel, m.itemSel)
		if err != nil {
			return &Error{Screen: screen, Command: "toggle item", Err: err}
		}
		m.status = fmt.Sprintf("Marked %q %s", it.Text, it.Status)
		return m.clampItems("toggle item")
	case key.Matches(k, m.keys.Append):
		m.startInput(TargetItem)
	case key.Matches(k, m.keys.Delete):
		n, err := m.itemCount("delete")
		if err != nil {
			return err
		}
		if n == 0 {
			m.status = "No items"
			return nil
		}
		if _, err := m.store.DeleteItem(m.topicSel, m.itemSel); err != nil {
			return &Error{Screen: screen, Command: "delete item", Err: err}
		}
		m.itemSel = 0
		m.status = "Deleted item"
		return m.clampItems("delete item")
	case key.Matches(k, m.keys.Exit):
		m.setScreen(ScreenTopics)
		m.status = ""
		return m.clampTopics("back to topics")
	}
	return nil
}

func (m *Machine) startInput(target Target) {
	m.target = target
	m.buf = m.buf[:0]
	m.setScreen(ScreenInput)
	if target == TargetTopic {
		m.status = "New topic"
	} else {
		m.status = "New item"
	}
}

func (m *Machine) handleInput(k Key) error {
	switch {
	case key.Matches(k, m.keys.Commit):
		return m.commitInput()
	case key.Matches(k, m.keys.Backspace):
		if len(m.buf) > 0 {
			m.buf = m.buf[:len(m.buf)-1]
		}
		return nil
	}
	// Named keys ("left", "ctrl+a") carry no text; only a single
	// printable rune is captured.
	r, size := utf8.DecodeRuneInString(string(k))
	if size == len(k) && r != utf8.RuneError && unicode.IsPrint(r) {
		m.buf = append(m.buf, r)
	}
	return nil
}

func (m *Machine) commitInput() error {
	text := string(m.buf)
	m.buf = m.buf[:0]
	if m.target == TargetTopic {
		m.setScreen(ScreenTopics)
	} else {
		m.setScreen(ScreenItems)
	}
	if strings.TrimSpace(text) == "" {
		m.status = "Nothing added"
		return nil
	}

	if m.target == TargetTopic {
		if err := m.store.AddTopic(text); err != nil {
			return &Error{Screen: ScreenInput, Command: "add topic", Err: err}
		}
		m.topicSel = 0
		m.status = fmt.Sprintf("Added topic %q", text)
		return m.clampTopics("add topic")
	}
	if err := m.store.AddItem(m.topicSel, storage.NewItem(text)); err != nil {
		return &Error{Screen: ScreenInput, Command: "add item", Err: err}
	}
	m.itemSel = 0
	m.status = fmt.Sprintf("Added item %q", text)
	return m.clampItems("add item")
}

func (m *Machine) quit() (Effect, error) {
	if err := m.store.Save(m.path); err != nil {
		return EffectNone, &Error{Screen: m.screen, Command: "save", Err: err}
	}
	m.logger.Info("quit", "path", m.path)
	return EffectQuit, nil
}

func (m *Machine) selectFirst() {
	switch m.screen {
	case ScreenTopics:
		m.topicSel = 0
	case ScreenItems:
		m.itemSel = 0
	}
}

func (m *Machine) setScreen(s Screen) {
	if m.screen != s {
		m.logger.Debug("screen", "from", m.screen, "to", s)
	}
	m.screen = s
}

func (m *Machine) topicCount(cmd string) (int, error) {
	n, err := m.store.TopicCount()
	if err != nil {
		return 0, &Error{Screen: m.screen, Command: cmd, Err: err}
	}
	return n, nil
}

func (m *Machine) itemCount(cmd string) (int, error) {
	n, err := m.store.ItemCount(m.topicSel)
	if err != nil {
		return 0, &Error{Screen: m.screen, Command: cmd, Err: err}
	}
	return n, nil
}

func (m *Machine) clampTopics(cmd string) error {
	n, err := m.topicCount(cmd)
	if err != nil {
		return err
	}
	m.topicSel = clamp(m.topicSel, n)
	return nil
}

func (m *Machine) clampItems(cmd string) error {
	n, err := m.itemCount(cmd)
	if err != nil {
		return err
	}
	m.itemSel = clamp(m.itemSel, n)
	return nil
}

func clamp(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
