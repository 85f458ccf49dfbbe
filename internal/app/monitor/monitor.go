/*
Package monitor implements the inactivity sweep.

A single periodic goroutine, started at most once per process, demotes users
whose last activity is older than the configured threshold to Inactive. It
never promotes anyone back; only TYPING or MESSAGE does that, through the
registry. A user logged out between scan start and mutation simply no longer
appears in the registry, which the sweep tolerates as a benign race.
*/
package monitor

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holochat/internal/app/registry"
	"holochat/internal/pkg/logx"
)

// Monitor is the periodic inactivity sweeper over the user registry.
type Monitor struct {
	store *registry.Store

	// interval is how often the sweep fires.
	interval time.Duration

	// threshold is the idle duration after which a user is demoted.
	threshold time.Duration

	// startOnce guards Start so a second call is a no-op.
	startOnce sync.Once

	// stopOnce guards Stop against double close.
	stopOnce sync.Once

	stop chan struct{}
	wg   sync.WaitGroup

	logger zerolog.Logger
}

// NewMonitor constructs a Monitor. It does not start sweeping until Start.
func NewMonitor(store *registry.Store, interval, threshold time.Duration) *Monitor {
	return &Monitor{
		store:     store,
		interval:  interval,
		threshold: threshold,
		stop:      make(chan struct{}),
		logger:    logx.Logger().With().Str("component", "InactivityMonitor").Logger(),
	}
}

// Start launches the sweep loop. Calling Start again has no effect.
func (m *Monitor) Start() {
	m.startOnce.Do(func() {
		m.wg.Add(1)
		go m.run()

		m.logger.Info().
			Dur("interval", m.interval).
			Dur("threshold", m.threshold).
			Msg("Inactivity monitor started.")
	})
}

// Stop terminates the sweep loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	m.wg.Wait()
}

// run is the sweep loop, firing once per interval until stopped.
func (m *Monitor) run() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			m.logger.Info().Msg("Inactivity monitor stopped.")
			return
		}
	}
}

// Sweep runs one demotion pass immediately.
func (m *Monitor) Sweep() {
	demoted := m.store.SweepInactive(m.threshold)
	if len(demoted) > 0 {
		m.logger.Info().
			Strs("usernames", demoted).
			Msg("Demoted idle users to Inactive.")
	}
}
