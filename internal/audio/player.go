// Package audio plays the timer's sound cue through an external command-line
// player. Pausing suspends the player process so playback resumes where it
// stopped; stopping kills it so the next play starts from the beginning.
package audio

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnavailable = errors.New("audio: playback unavailable")
	ErrUnsupported = errors.New("audio: pause/resume unsupported on this platform")
)

type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// knownPlayers are tried in order when no player is configured.
var knownPlayers = []struct {
	name string
	args []string
}{
	{name: "afplay"},
	{name: "paplay"},
	{name: "ffplay", args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{name: "mpg123", args: []string{"-q"}},
}

type Player struct {
	mu      sync.Mutex
	command string
	args    []string
	asset   string
	cmd     *exec.Cmd
	paused  bool
	log     logrus.FieldLogger
}

// NewPlayer resolves the player command. An empty player name picks the
// first known player found on PATH. A player value may carry arguments,
// e.g. "mpv --no-video".
func NewPlayer(asset, player string, log logrus.FieldLogger) (*Player, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	command, args, err := resolvePlayer(player)
	if err != nil {
		return nil, err
	}
	return &Player{
		command: command,
		args:    args,
		asset:   asset,
		log:     log.WithField("component", "audio"),
	}, nil
}

func resolvePlayer(player string) (string, []string, error) {
	if fields := strings.Fields(player); len(fields) > 0 {
		path, err := exec.LookPath(fields[0])
		if err != nil {
			return "", nil, fmt.Errorf("%w: player %q: %v", ErrUnavailable, fields[0], err)
		}
		return path, fields[1:], nil
	}
	for _, known := range knownPlayers {
		if path, err := exec.LookPath(known.name); err == nil {
			return path, known.args, nil
		}
	}
	return "", nil, fmt.Errorf("%w: no audio player found on PATH", ErrUnavailable)
}

func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd != nil {
		if !p.paused {
			return nil
		}
		if err := resume(p.cmd.Process); err != nil {
			return err
		}
		p.paused = false
		return nil
	}

	if _, err := os.Stat(p.asset); err != nil {
		return fmt.Errorf("%w: asset %s: %v", ErrUnavailable, p.asset, err)
	}
	args := append(append([]string{}, p.args...), p.asset)
	cmd := exec.Command(p.command, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start %s: %v", ErrUnavailable, p.command, err)
	}
	p.cmd = cmd
	p.paused = false
	go p.wait(cmd)
	return nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.paused {
		return nil
	}
	if err := suspend(p.cmd.Process); err != nil {
		return err
	}
	p.paused = true
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil {
		return nil
	}
	err := p.cmd.Process.Kill()
	p.cmd = nil
	p.paused = false
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("audio: stop player: %w", err)
	}
	return nil
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case p.cmd == nil:
		return StateIdle
	case p.paused:
		return StatePaused
	default:
		return StatePlaying
	}
}

// wait reaps the player process and clears it once the cue finishes on its
// own.
func (p *Player) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == cmd {
		p.cmd = nil
		p.paused = false
	}
	if err != nil {
		p.log.WithError(err).Debug("audio player exited")
	}
}

// Silent satisfies the timer's audio contract without producing sound.
type Silent struct{}

func (Silent) Play() error  { return nil }
func (Silent) Pause() error { return nil }
func (Silent) Stop() error  { return nil }
