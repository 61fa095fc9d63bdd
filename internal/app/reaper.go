package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Reaper periodically destroys rooms that have been idle longer than
// Threshold. Rooms are independent; sweep order does not matter.
type Reaper struct {
	Orch      *Orchestrator
	Interval  time.Duration
	Threshold time.Duration
}

// Start launches the sweep goroutine and returns a stop function.
// Calling stop() is idempotent.
func (rp *Reaper) Start() (stop func()) {
	done := make(chan struct{})
	var once sync.Once
	go func() {
		ticker := time.NewTicker(rp.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rp.Sweep(time.Now())
			case <-done:
				return
			}
		}
	}()
	return func() {
		once.Do(func() { close(done) })
	}
}

// Sweep reaps every idle room once and returns how many were destroyed.
func (rp *Reaper) Sweep(now time.Time) int {
	reaped := 0
	for _, room := range rp.Orch.Rooms.List() {
		if rp.Orch.ReapIfIdle(room, rp.Threshold, now) {
			reaped++
		}
	}
	if reaped > 0 {
		log.Info().Str("module", "app.reaper").Int("reaped", reaped).Int("remaining", rp.Orch.Rooms.Len()).Msg("sweep complete")
	}
	return reaped
}
