package nav

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"go22dos/internal/config"
)

// Key is a single key event named the way Bubble Tea names keys.
type Key string

func (k Key) String() string { return string(k) }

type KeyMap struct {
	GoToTopics key.Binding
	Quit       key.Binding
	Up         key.Binding
	Down       key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Select     key.Binding
	Toggle     key.Binding
	Append     key.Binding
	Delete     key.Binding
	Exit       key.Binding
	Commit     key.Binding
	Backspace  key.Binding
}

func NewKeyMap(k config.Keymap) KeyMap {
	return KeyMap{
		GoToTopics: binding(k.GoToTopics, "topics"),
		Quit:       binding(k.Quit, "save & quit"),
		Up:         binding(k.Up, "up"),
		Down:       binding(k.Down, "down"),
		Top:        chordBinding(k.Top, "first"),
		Bottom:     binding(k.Bottom, "last"),
		Select:     binding(k.Select, "open"),
		Toggle:     binding(k.Toggle, "tick"),
		Append:     binding(k.Append, "add"),
		Delete:     binding(k.Delete, "delete"),
		Exit:       binding(k.Exit, "back"),
		Commit:     binding(k.Commit, "done"),
		Backspace:  binding(k.Backspace, "erase"),
	}
}

func DefaultKeyMap() KeyMap {
	return NewKeyMap(config.Default().Keys)
}

func binding(keys []string, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(helpKeys(keys), desc),
	)
}

// chordBinding is for keys that only act when pressed twice in a row.
func chordBinding(keys []string, desc string) key.Binding {
	doubled := make([]string, len(keys))
	for i, k := range keys {
		doubled[i] = k + k
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(helpKeys(doubled), desc),
	)
}

func helpKeys(keys []string) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		switch k {
		case "up":
			names[i] = "↑"
		case "down":
			names[i] = "↓"
		case " ":
			names[i] = "space"
		default:
			names[i] = k
		}
	}
	return strings.Join(names, "/")
}
