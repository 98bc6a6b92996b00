package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mkrigman/scnav/internal/config"
	"github.com/mkrigman/scnav/internal/debug"
	"github.com/mkrigman/scnav/internal/hw/spacectl"
	"github.com/mkrigman/scnav/internal/logic/transform"
	"github.com/mkrigman/scnav/internal/viewport"
)

// State is the scheduler's lifecycle position.
type State int

const (
	StateIdle       State = iota // enabled, no connection yet
	StateConnecting              // attempting to open the device channel
	StatePolling                 // channel open, fetching every tick
	StateStopped                 // terminal; the callback asked never to be invoked again
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Channel is the slice of the device channel the scheduler drives.
type Channel interface {
	FetchSample() (*spacectl.Sample, error)
	Close()
}

// Opener opens the device channel on first need.
type Opener func() (Channel, error)

// DriverOpener returns an Opener that loads the vendor library and opens
// the channel under the configured application identity.
func DriverOpener(cfg config.DeviceConfig) Opener {
	return func() (Channel, error) {
		drv, err := spacectl.LoadDriver(cfg.LibraryPath)
		if err != nil {
			return nil, err
		}
		ch, err := spacectl.Open(drv, cfg.AppName)
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}

// Status is the panel-facing readout of the session.
type Status struct {
	State    string     `json:"state"`
	Enabled  bool       `json:"enabled"`
	Samples  uint64     `json:"samples"`
	Rotation [4]float64 `json:"rotation"` // w, x, y, z
	Location [3]float64 `json:"location"` // x, y, z
}

// Session owns the poll/apply cycle for one add-on session: the device
// channel lifetime, the state machine, and the orthogonal enabled flag.
// Tick invocations are serialized (one Run goroutine); the mutex exists
// because the enabled flag and the status readout are touched from the
// web panel's goroutine.
type Session struct {
	mu       sync.Mutex
	host     viewport.Host
	settings *config.Store
	open     Opener

	fast  time.Duration
	idle  time.Duration
	first time.Duration

	state    State
	enabled  bool
	alive    bool
	channel  Channel
	samples  uint64
	lastView viewport.ViewState
}

// New creates a session in the Idle state, enabled, not yet connected.
func New(cfg *config.Config, settings *config.Store, host viewport.Host, open Opener) *Session {
	return &Session{
		host:     host,
		settings: settings,
		open:     open,
		fast:     cfg.FastInterval(),
		idle:     cfg.IdleInterval(),
		first:    cfg.FirstInterval(),
		state:    StateIdle,
		enabled:  true,
		alive:    true,
		lastView: viewport.Identity(),
	}
}

// Tick is one invocation of the repeating callback. It returns the delay
// until the next invocation and whether the callback should be invoked
// again at all; (0, false) is the "never call me again" sentinel.
func (s *Session) Tick() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateStopped {
		return 0, false
	}

	// Host-initiated teardown bypasses normal ordering: close if open,
	// then stop.
	if !s.alive {
		s.shutdownLocked("session torn down")
		return 0, false
	}

	// Disabled is an orthogonal flag, not a state: every tick is a no-op
	// that skips device interaction without tearing down an existing
	// connection.
	if !s.enabled {
		return s.idle, true
	}

	view, ok := s.host.FirstView3D()
	if !ok {
		// Nothing to control yet. Keep any open connection and re-check
		// slowly to avoid busy-polling.
		return s.idle, true
	}

	if s.channel == nil {
		s.setStateLocked(StateConnecting)
		ch, err := s.open()
		if err != nil {
			// Startup failure: retrying a missing driver or absent
			// device is futile without user action. Report once and
			// disable for the session.
			debug.Error(fmt.Errorf("open device: %w", err))
			s.enabled = false
			s.setStateLocked(StateStopped)
			return 0, false
		}
		s.channel = ch
		s.setStateLocked(StatePolling)
	}

	sample, err := s.channel.FetchSample()
	if err != nil {
		debug.Error(fmt.Errorf("read device: %w", err))
		s.channel.Close()
		s.channel = nil
		s.enabled = false
		s.setStateLocked(StateStopped)
		return 0, false
	}

	if sample != nil {
		st := view.State()
		transform.Apply(st, *sample, s.settings.Motion())
		view.TagRedraw()
		s.lastView = *st
		s.samples++
	}

	return s.fast, true
}

// Run drives Tick under a timer until the callback asks to stop or ctx is
// cancelled. It is the repeating-callback facility a real host would
// provide: one goroutine, serialized invocations, variable interval, with
// a grace delay before the first tick.
func (s *Session) Run(ctx context.Context) {
	timer := time.NewTimer(s.first)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return
		case <-timer.C:
			delay, again := s.Tick()
			if !again {
				return
			}
			timer.Reset(delay)
		}
	}
}

// Stop is the host-initiated teardown: close the connection if open and
// make any further callback the last.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = false
	s.shutdownLocked("host teardown")
}

// Toggle flips the enabled flag and returns the new value.
func (s *Session) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = !s.enabled
	if s.enabled {
		debug.Info("navigation enabled")
	} else {
		debug.Info("navigation disabled")
	}
	return s.enabled
}

// SetEnabled sets the enabled flag.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = enabled
}

// Enabled reports the enabled flag.
func (s *Session) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns the panel-facing readout: state, enabled flag, and the
// view state as of the last applied sample.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.lastView.Rotation
	l := s.lastView.Location
	return Status{
		State:    s.state.String(),
		Enabled:  s.enabled,
		Samples:  s.samples,
		Rotation: [4]float64{r.Real, r.Imag, r.Jmag, r.Kmag},
		Location: [3]float64{l.X, l.Y, l.Z},
	}
}

func (s *Session) setStateLocked(next State) {
	if s.state == next {
		return
	}
	debug.State(s.state.String(), next.String())
	s.state = next
}

func (s *Session) shutdownLocked(reason string) {
	if s.channel != nil {
		s.channel.Close()
		s.channel = nil
	}
	if s.state != StateStopped {
		debug.Info("session stopped: %s", reason)
		s.setStateLocked(StateStopped)
	}
}
