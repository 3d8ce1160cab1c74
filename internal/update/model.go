package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/pomo/internal/config"
	"github.com/sandeepkv93/pomo/internal/model"
	"github.com/sandeepkv93/pomo/internal/scheduler"
	"github.com/sandeepkv93/pomo/internal/timer"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Focus      string
	ShortBreak string
	LongBreak  string
	Help       string
	Quit       string
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Model struct {
	Timer          *timer.Controller
	Scheduler      *scheduler.Engine
	Palette        CommandPaletteState
	HelpVisible    bool
	Notifications  []Notification
	DesktopEnabled bool
	notifier       DesktopNotifier
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error
	log            logrus.FieldLogger

	durationList  list.Model
	commandInput  textinput.Model
	timerProgress progress.Model
	helpModel     help.Model
	helpMarkdown  string
	width         int
}

type durationItem int

func (i durationItem) FilterValue() string { return fmt.Sprint(int(i)) }
func (i durationItem) Title() string       { return fmt.Sprintf("%d min", int(i)) }
func (i durationItem) Description() string { return model.Classify(int(i)).Label() }

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

// TickMsg is one firing from the tick engine.
type TickMsg struct {
	ID   uint64
	Mode model.Mode
}

type ShowScreenMsg struct {
	Screen model.Screen
}

// Runtime carries the long-lived collaborators built by the CLI.
type Runtime struct {
	Engine   *scheduler.Engine
	Audio    timer.AudioCue
	Notifier DesktopNotifier
	Logger   logrus.FieldLogger
}

func NewModel() Model {
	return NewModelWithRuntime(config.DefaultRuntimeConfig(), Runtime{})
}

func NewModelWithRuntime(cfg config.RuntimeConfig, rt Runtime) Model {
	log := rt.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	opts := []timer.Option{timer.WithLogger(log), timer.WithAudio(rt.Audio)}
	if rt.Engine != nil {
		opts = append(opts, timer.WithTickSource(scheduler.NewTicker(rt.Engine, time.Second)))
	}

	m := Model{
		Timer:          timer.New(opts...),
		Scheduler:      rt.Engine,
		DesktopEnabled: cfg.DesktopNotifications,
		notifier:       NoopDesktopNotifier{},
		log:            log,
		Keys: GlobalKeyMap{
			Focus:      "1",
			ShortBreak: "2",
			LongBreak:  "3",
			Help:       "?",
			Quit:       "q",
		},
	}
	if rt.Notifier != nil {
		m.notifier = rt.Notifier
	}
	m.initBubbleComponents(cfg.DefaultMinutes)
	return m
}

func (m *Model) initBubbleComponents(defaultMinutes int) {
	items := make([]list.Item, 0, model.MaxDurationMinutes)
	for n := model.MinDurationMinutes; n <= model.MaxDurationMinutes; n++ {
		items = append(items, durationItem(n))
	}
	m.durationList = list.New(items, list.NewDefaultDelegate(), 40, 14)
	m.durationList.Title = "Duration"
	m.durationList.SetShowHelp(false)
	m.durationList.SetFilteringEnabled(false)
	m.durationList.SetShowStatusBar(false)
	if model.ValidateMinutes(defaultMinutes) != nil {
		defaultMinutes = model.DefaultDurationMinutes
	}
	m.durationList.Select(defaultMinutes - model.MinDurationMinutes)

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 64
	m.commandInput.Width = 40

	m.timerProgress = progress.New(progress.WithDefaultGradient())
	m.helpModel = help.New()
	m.helpMarkdown = renderHelpMarkdown()
}

// SelectedMinutes is the duration highlighted on the setup screen.
func (m Model) SelectedMinutes() int {
	if it, ok := m.durationList.SelectedItem().(durationItem); ok {
		return int(it)
	}
	return model.DefaultDurationMinutes
}
