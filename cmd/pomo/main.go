package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sandeepkv93/pomo/internal/audio"
	"github.com/sandeepkv93/pomo/internal/config"
	"github.com/sandeepkv93/pomo/internal/scheduler"
	"github.com/sandeepkv93/pomo/internal/timer"
	"github.com/sandeepkv93/pomo/internal/update"
)

var (
	// Version metadata populated at build time via -ldflags.
	releaseVersion = "dev"

	configPath string
	verbose    bool
	logFile    string
	noAudio    bool

	rootCmd = &cobra.Command{
		Use:           "pomo",
		Short:         "A terminal Pomodoro timer with focus, short break, and long break modes.",
		Long:          "pomo runs a three-mode countdown timer in the terminal. `pomo serve` runs a cache-first proxy that keeps the timer's web assets available offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runTUI,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	rootCmd.Flags().BoolVar(&noAudio, "no-audio", false, "Do not play the audio cue")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheInstallCmd)
	cacheCmd.AddCommand(cacheActivateCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cachePurgeCmd)

	rootCmd.Version = releaseVersion
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Fatal(err)
	}
}

// loadConfig layers CLI flags over the file and environment configuration.
func loadConfig() (config.RuntimeConfig, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if noAudio {
		cfg.Silent = true
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to cfg.LogFile when set and
// to fallback otherwise.
func newLogger(cfg config.RuntimeConfig, fallback io.Writer) (*logrus.Logger, func(), error) {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(fallback)
	closer := func() {}
	if path := strings.TrimSpace(cfg.LogFile); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
		closer = func() { _ = f.Close() }
	}
	return log, closer, nil
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("pomo: stdout is not a terminal; use `pomo serve` or `pomo cache` when running headless")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	// Keep stray package-level logging off the alt screen.
	prevOut := logrus.StandardLogger().Out
	logrus.SetOutput(io.Discard)
	defer logrus.SetOutput(prevOut)

	engine := scheduler.NewEngine(cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	var notifier update.DesktopNotifier
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	m := update.NewModelWithRuntime(cfg, update.Runtime{
		Engine:   engine,
		Audio:    audioCue(cfg, log),
		Notifier: notifier,
		Logger:   log,
	})

	log.WithField("version", releaseVersion).Info("pomo starting")
	final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
	if fm, ok := final.(update.Model); ok {
		fm.Timer.Close()
	}
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("pomo: %w", err)
	}
	return nil
}

func audioCue(cfg config.RuntimeConfig, log logrus.FieldLogger) timer.AudioCue {
	if cfg.Silent {
		return audio.Silent{}
	}
	player, err := audio.NewPlayer(cfg.AudioAsset, cfg.AudioPlayer, log)
	if err != nil {
		log.WithError(err).Warn("audio unavailable; running silent")
		return audio.Silent{}
	}
	return player
}
