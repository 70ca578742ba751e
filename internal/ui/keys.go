package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cwarden/skuld/internal/engine"
)

// keyMap holds the bindings of the grid view. Engine actions are looked up
// by name so that rc-file binds reach the keyboard controller unchanged.
type keyMap struct {
	Quit       key.Binding
	Help       key.Binding
	Today      key.Binding
	Refresh    key.Binding
	NewEvent   key.Binding
	QuickAdd   key.Binding
	EditFile   key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding

	actions map[engine.Action]key.Binding
}

var helpText = map[string]string{
	"quit":          "quit",
	"help":          "toggle help",
	"today":         "today",
	"refresh":       "refresh",
	"new_event":     "new event",
	"quick_add":     "quick add",
	"edit_file":     "edit store file",
	"scroll_up":     "scroll up",
	"scroll_down":   "scroll down",
	"select_next":   "next event",
	"select_prev":   "prev event",
	"open_event":    "edit title",
	"delete_event":  "delete event",
	"nudge_later":   "later 15m",
	"nudge_earlier": "earlier 15m",
	"prev_week":     "prev week",
	"next_week":     "next week",
	"cancel":        "cancel",
}

func newBinding(bindings map[string][]string, name string) key.Binding {
	keys := bindings[name]
	if len(keys) == 0 {
		return key.NewBinding(key.WithDisabled())
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(helpKeys(keys), helpText[name]),
	)
}

func helpKeys(keys []string) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		names[i] = k
	}
	return strings.Join(names, "/")
}

func newKeyMap(bindings map[string][]string) keyMap {
	km := keyMap{
		Quit:       newBinding(bindings, "quit"),
		Help:       newBinding(bindings, "help"),
		Today:      newBinding(bindings, "today"),
		Refresh:    newBinding(bindings, "refresh"),
		NewEvent:   newBinding(bindings, "new_event"),
		QuickAdd:   newBinding(bindings, "quick_add"),
		EditFile:   newBinding(bindings, "edit_file"),
		ScrollUp:   newBinding(bindings, "scroll_up"),
		ScrollDown: newBinding(bindings, "scroll_down"),
		actions:    make(map[engine.Action]key.Binding),
	}
	for _, a := range engine.Actions() {
		km.actions[a] = newBinding(bindings, a.String())
	}
	return km
}

// action returns the engine action bound to msg.
func (k keyMap) action(msg tea.KeyMsg) engine.Action {
	for _, a := range engine.Actions() {
		if key.Matches(msg, k.actions[a]) {
			return a
		}
	}
	return engine.ActionNone
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.actions[engine.SelectNext],
		k.actions[engine.NudgeLater],
		k.actions[engine.PrevWeek],
		k.actions[engine.NextWeek],
		k.QuickAdd,
		k.Help,
		k.Quit,
	}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	events := make([]key.Binding, 0, len(k.actions))
	for _, a := range engine.Actions() {
		events = append(events, k.actions[a])
	}
	return [][]key.Binding{
		events,
		{k.Today, k.ScrollUp, k.ScrollDown, k.NewEvent, k.QuickAdd, k.EditFile, k.Refresh, k.Help, k.Quit},
	}
}
