package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"go22dos/internal/nav"
	"go22dos/internal/storage"
)

const appTitle = "go22dos"

func (m Model) View() string {
	if m.err != nil {
		return m.styles.errorText.Render("error: "+m.err.Error()) + "\n"
	}

	var b strings.Builder
	switch m.machine.Screen() {
	case nav.ScreenStart:
		b.WriteString(m.renderSplash())
	case nav.ScreenTopics:
		b.WriteString(m.styles.title.Render(appTitle))
		b.WriteString("\n")
		b.WriteString(m.renderTopics())
	case nav.ScreenItems:
		b.WriteString(m.renderItemsScreen())
	case nav.ScreenInput:
		if m.machine.Target() == nav.TargetItem {
			b.WriteString(m.renderItemsScreen())
		} else {
			b.WriteString(m.styles.title.Render(appTitle))
			b.WriteString("\n")
			b.WriteString(m.renderTopics())
		}
		b.WriteString("\n")
		b.WriteString(m.input.View())
	}

	b.WriteString("\n\n")
	if s := m.machine.Status(); s != "" {
		b.WriteString(m.styles.status.Render(s))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.machine.Bindings()))
	return b.String()
}

func (m Model) renderSplash() string {
	k := m.machine.Keys()
	rows := []key.Binding{k.GoToTopics, k.Down, k.Up, k.Select, k.Toggle, k.Append, k.Delete, k.Exit, k.Quit}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(appTitle))
	b.WriteString("\n")
	for _, kb := range rows {
		h := kb.Help()
		line := fmt.Sprintf("type %-10s to %s", h.Key, splashText(h.Desc))
		b.WriteString(m.styles.regular.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func splashText(desc string) string {
	switch desc {
	case "topics":
		return "go to topics"
	case "open":
		return "open the selected topic"
	case "tick":
		return "tick off an item"
	case "add":
		return "add a topic or item"
	case "delete":
		return "delete the selection"
	case "back":
		return "leave a list"
	default:
		return desc
	}
}

func (m Model) renderTopics() string {
	snap, err := m.store.Snapshot()
	if err != nil {
		return m.styles.errorText.Render(err.Error())
	}
	if len(snap.Topics) == 0 {
		return m.styles.other.Render("no topics atm")
	}

	sel := m.machine.TopicSelection()
	var b strings.Builder
	for i, t := range snap.Topics {
		b.WriteString(m.styles.other.Render(ratioLabel(t)))
		b.WriteString("  ")
		if i == sel {
			b.WriteString(m.styles.highlight.Render(t.Name))
		} else {
			b.WriteString(m.styles.regular.Render(t.Name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func ratioLabel(t storage.TopicSummary) string {
	r, ok := t.Ratio()
	if !ok {
		return "[ -- ]"
	}
	return fmt.Sprintf("[%.2f]", r)
}

func (m Model) renderItemsScreen() string {
	topic := m.machine.TopicSelection()
	name, err := m.store.TopicName(topic)
	if err != nil {
		return m.styles.errorText.Render(err.Error())
	}
	items, err := m.store.Items(topic)
	if err != nil {
		return m.styles.errorText.Render(err.Error())
	}

	var b strings.Builder
	b.WriteString(m.styles.title.Render(name))
	b.WriteString("\n")
	if len(items) == 0 {
		b.WriteString(m.styles.other.Render("no items atm"))
		return b.String()
	}

	sel := m.machine.ItemSelection()
	for i, it := range items {
		b.WriteString(m.checkbox(it.Status))
		b.WriteString("  ")
		if i == sel {
			b.WriteString(m.styles.highlight.Render(it.Text))
		} else {
			b.WriteString(m.styles.regular.Render(it.Text))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) checkbox(s storage.Status) string {
	if s == storage.Done {
		return m.styles.checkboxDone.Render("[X]")
	}
	return m.styles.checkboxTodo.Render("[ ]")
}
