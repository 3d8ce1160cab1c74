package scheduler

import (
	"time"

	"github.com/sandeepkv93/pomo/internal/model"
)

// Ticker drives timer countdowns from an Engine: each Start schedules a
// periodic event, each Stop cancels it.
type Ticker struct {
	engine *Engine
	every  time.Duration
	now    func() time.Time
}

func NewTicker(engine *Engine, every time.Duration) *Ticker {
	if every <= 0 {
		every = time.Second
	}
	return &Ticker{
		engine: engine,
		every:  every,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (t *Ticker) Start(id uint64, mode model.Mode) error {
	return t.engine.Schedule(TickEvent{
		ID:        id,
		Tag:       string(mode),
		TriggerAt: t.now().Add(t.every),
		Every:     t.every,
	})
}

func (t *Ticker) Stop(id uint64) {
	t.engine.Cancel(id)
}
