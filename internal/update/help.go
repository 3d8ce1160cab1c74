package update

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/sandeepkv93/pomo/internal/model"
	"github.com/sandeepkv93/pomo/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const helpDoc = `# pomo

Pick a duration on the setup screen and press **enter**.

| minutes | timer |
|---|---|
| under 20 | Short Break |
| exactly 20 | Focus |
| over 20 | Long Break |

Only one timer runs at a time. Playing another timer pauses the running one.

Palette: ` + "`set 25`, `play focus`, `pause`, `reset long`, `show short`, `back`"

func renderHelpMarkdown() string {
	return views.RenderMarkdown(helpDoc)
}

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return "\n" + m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.screenBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	return views.RenderHelpPanel(views.HelpPanelData{
		CurrentScreen: string(m.Timer.Screen()),
		Bindings:      plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
		Markdown: m.helpMarkdown,
	})
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: m.Keys.Focus, Action: "show Focus"},
		{Key: m.Keys.ShortBreak, Action: "show Short Break"},
		{Key: m.Keys.LongBreak, Action: "show Long Break"},
		{Key: "/", Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) screenBindings() []KeyBinding {
	if m.Timer.Screen() == model.ScreenSetup {
		return []KeyBinding{
			{Key: "j/k", Action: "choose duration"},
			{Key: "enter", Action: "commit and start"},
		}
	}
	return []KeyBinding{
		{Key: "p", Action: "play"},
		{Key: "s", Action: "pause"},
		{Key: "space", Action: "play/pause"},
		{Key: "r", Action: "reset"},
		{Key: "b/esc", Action: "back to setup"},
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.screenBindings()))
	for _, kb := range append(m.globalBindings(), m.screenBindings()...) {
		out = append(out, key.NewBinding(key.WithKeys(strings.Split(kb.Key, "/")...), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
