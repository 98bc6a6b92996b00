package session

import (
	"context"
	"errors"
	"testing"

	"github.com/mkrigman/scnav/internal/config"
	"github.com/mkrigman/scnav/internal/hw/spacectl"
	"github.com/mkrigman/scnav/internal/viewport"
)

// fakeChannel scripts FetchSample results for the scheduler.
type fakeChannel struct {
	samples  []*spacectl.Sample
	fetchErr error

	fetches int
	closes  int
}

func (c *fakeChannel) FetchSample() (*spacectl.Sample, error) {
	c.fetches++
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if len(c.samples) == 0 {
		return nil, nil
	}
	s := c.samples[0]
	c.samples = c.samples[1:]
	return s, nil
}

func (c *fakeChannel) Close() { c.closes++ }

// countingOpener wraps an Opener result and counts invocations.
type countingOpener struct {
	ch    *fakeChannel
	err   error
	calls int
}

func (o *countingOpener) open() (Channel, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	return o.ch, nil
}

func newTestSession(host viewport.Host, open Opener) *Session {
	cfg := config.Default()
	return New(cfg, config.NewStore(cfg.Motion), host, open)
}

func TestTick_OpensOnFirstNeedAndPolls(t *testing.T) {
	host := viewport.NewMemoryHost()
	opener := &countingOpener{ch: &fakeChannel{
		samples: []*spacectl.Sample{{TX: 100}},
	}}
	s := newTestSession(host, opener.open)

	if got := s.State(); got != StateIdle {
		t.Fatalf("initial state = %v, want idle", got)
	}

	delay, again := s.Tick()
	if !again {
		t.Fatal("first tick must reschedule")
	}
	if delay != s.fast {
		t.Errorf("delay = %v, want fast interval %v", delay, s.fast)
	}
	if opener.calls != 1 {
		t.Errorf("opener calls = %d, want 1", opener.calls)
	}
	if got := s.State(); got != StatePolling {
		t.Errorf("state = %v, want polling", got)
	}

	state, redraws := host.Snapshot()
	if redraws != 1 {
		t.Errorf("redraws = %d, want 1", redraws)
	}
	if state.Location.X == 0 {
		t.Error("sample not applied to the view state")
	}

	// Later ticks reuse the channel.
	s.Tick()
	if opener.calls != 1 {
		t.Errorf("opener calls after second tick = %d, want 1", opener.calls)
	}
}

func TestTick_NoDataTickLeavesViewAlone(t *testing.T) {
	host := viewport.NewMemoryHost()
	opener := &countingOpener{ch: &fakeChannel{}}
	s := newTestSession(host, opener.open)

	delay, again := s.Tick()
	if !again || delay != s.fast {
		t.Fatalf("tick = (%v, %v), want (fast, true)", delay, again)
	}
	if _, redraws := host.Snapshot(); redraws != 0 {
		t.Errorf("redraws = %d, want 0 without data", redraws)
	}
	if s.Status().Samples != 0 {
		t.Errorf("samples = %d, want 0", s.Status().Samples)
	}
}

func TestTick_DisabledSkipsDeviceEntirely(t *testing.T) {
	host := viewport.NewMemoryHost()
	opener := &countingOpener{ch: &fakeChannel{}}
	s := newTestSession(host, opener.open)
	s.SetEnabled(false)

	delay, again := s.Tick()
	if !again {
		t.Fatal("disabled tick must reschedule")
	}
	if delay != s.idle {
		t.Errorf("delay = %v, want idle interval %v", delay, s.idle)
	}
	if opener.calls != 0 {
		t.Errorf("opener calls = %d, want 0 while disabled", opener.calls)
	}
}

func TestTick_DisableMidPollingKeepsConnection(t *testing.T) {
	host := viewport.NewMemoryHost()
	ch := &fakeChannel{}
	opener := &countingOpener{ch: ch}
	s := newTestSession(host, opener.open)

	s.Tick() // opens
	s.SetEnabled(false)

	delay, again := s.Tick()
	if !again || delay != s.idle {
		t.Fatalf("disabled tick = (%v, %v), want (idle, true)", delay, again)
	}
	if ch.closes != 0 {
		t.Errorf("closes = %d, want 0; disabling must not tear down the channel", ch.closes)
	}
	if ch.fetches != 1 {
		t.Errorf("fetches = %d, want 1; disabled ticks must not touch the device", ch.fetches)
	}

	// Re-enabling picks up where it left off, on the same channel.
	s.SetEnabled(true)
	delay, again = s.Tick()
	if !again || delay != s.fast {
		t.Fatalf("re-enabled tick = (%v, %v), want (fast, true)", delay, again)
	}
	if opener.calls != 1 {
		t.Errorf("opener calls = %d, want 1", opener.calls)
	}
}

func TestTick_NoVisibleViewIdlesWithoutClosing(t *testing.T) {
	host := viewport.NewMemoryHost()
	ch := &fakeChannel{samples: []*spacectl.Sample{{TZ: 50}, {TZ: 50}}}
	opener := &countingOpener{ch: ch}
	s := newTestSession(host, opener.open)

	s.Tick() // opens, applies first sample
	host.SetVisible(false)

	delay, again := s.Tick()
	if !again || delay != s.idle {
		t.Fatalf("no-view tick = (%v, %v), want (idle, true)", delay, again)
	}
	if ch.closes != 0 {
		t.Errorf("closes = %d, want 0; a hidden view must not drop the connection", ch.closes)
	}
	if ch.fetches != 1 {
		t.Errorf("fetches = %d, want 1; no fetch without a view to move", ch.fetches)
	}

	host.SetVisible(true)
	delay, again = s.Tick()
	if !again || delay != s.fast {
		t.Fatalf("view-back tick = (%v, %v), want (fast, true)", delay, again)
	}
	if s.Status().Samples != 2 {
		t.Errorf("samples = %d, want 2 after the view returns", s.Status().Samples)
	}
}

func TestTick_NoViewBeforeFirstOpenDefersConnecting(t *testing.T) {
	host := viewport.NewMemoryHost()
	host.SetVisible(false)
	opener := &countingOpener{ch: &fakeChannel{}}
	s := newTestSession(host, opener.open)

	delay, again := s.Tick()
	if !again || delay != s.idle {
		t.Fatalf("tick = (%v, %v), want (idle, true)", delay, again)
	}
	if opener.calls != 0 {
		t.Errorf("opener calls = %d, want 0 without a visible view", opener.calls)
	}
	if got := s.State(); got != StateIdle {
		t.Errorf("state = %v, want idle", got)
	}
}

func TestTick_OpenFailureStopsAfterOneReport(t *testing.T) {
	host := viewport.NewMemoryHost()
	opener := &countingOpener{err: errors.New("driver library not found")}
	s := newTestSession(host, opener.open)

	delay, again := s.Tick()
	if again || delay != 0 {
		t.Fatalf("tick = (%v, %v), want (0, false) after open failure", delay, again)
	}
	if got := s.State(); got != StateStopped {
		t.Errorf("state = %v, want stopped", got)
	}
	if s.Enabled() {
		t.Error("session must disable itself after open failure")
	}

	// A stray follow-up tick is a silent no-op: no second open attempt, no
	// second report.
	delay, again = s.Tick()
	if again || delay != 0 {
		t.Fatalf("post-stop tick = (%v, %v), want (0, false)", delay, again)
	}
	if opener.calls != 1 {
		t.Errorf("opener calls = %d, want exactly 1", opener.calls)
	}
}

func TestTick_FetchFaultClosesAndStops(t *testing.T) {
	host := viewport.NewMemoryHost()
	ch := &fakeChannel{fetchErr: spacectl.ErrChannelFault}
	opener := &countingOpener{ch: ch}
	s := newTestSession(host, opener.open)

	delay, again := s.Tick()
	if again || delay != 0 {
		t.Fatalf("tick = (%v, %v), want (0, false) after fetch fault", delay, again)
	}
	if ch.closes != 1 {
		t.Errorf("closes = %d, want 1", ch.closes)
	}
	if got := s.State(); got != StateStopped {
		t.Errorf("state = %v, want stopped", got)
	}
	if s.Enabled() {
		t.Error("session must disable itself after a fetch fault")
	}
}

func TestStop_ClosesOpenChannel(t *testing.T) {
	host := viewport.NewMemoryHost()
	ch := &fakeChannel{}
	opener := &countingOpener{ch: ch}
	s := newTestSession(host, opener.open)

	s.Tick() // opens
	s.Stop()

	if ch.closes != 1 {
		t.Errorf("closes = %d, want 1 after Stop", ch.closes)
	}
	if got := s.State(); got != StateStopped {
		t.Errorf("state = %v, want stopped", got)
	}
	if delay, again := s.Tick(); again || delay != 0 {
		t.Errorf("post-stop tick = (%v, %v), want (0, false)", delay, again)
	}
}

func TestStop_BeforeFirstTickIsSafe(t *testing.T) {
	host := viewport.NewMemoryHost()
	opener := &countingOpener{ch: &fakeChannel{}}
	s := newTestSession(host, opener.open)

	s.Stop()

	if delay, again := s.Tick(); again || delay != 0 {
		t.Errorf("tick after early Stop = (%v, %v), want (0, false)", delay, again)
	}
	if opener.calls != 0 {
		t.Errorf("opener calls = %d, want 0", opener.calls)
	}
}

func TestToggle_FlipsEnabled(t *testing.T) {
	s := newTestSession(viewport.NewMemoryHost(), (&countingOpener{ch: &fakeChannel{}}).open)

	if !s.Enabled() {
		t.Fatal("session must start enabled")
	}
	if s.Toggle() {
		t.Error("first toggle should report disabled")
	}
	if !s.Toggle() {
		t.Error("second toggle should report enabled")
	}
}

func TestStatus_ReflectsLastAppliedSample(t *testing.T) {
	host := viewport.NewMemoryHost()
	opener := &countingOpener{ch: &fakeChannel{
		samples: []*spacectl.Sample{{TX: 100}},
	}}
	s := newTestSession(host, opener.open)

	st := s.Status()
	if st.State != "idle" || !st.Enabled || st.Samples != 0 {
		t.Fatalf("initial status = %+v", st)
	}
	if st.Rotation != [4]float64{1, 0, 0, 0} {
		t.Errorf("initial rotation = %v, want identity", st.Rotation)
	}

	s.Tick()

	st = s.Status()
	if st.State != "polling" {
		t.Errorf("state = %q, want polling", st.State)
	}
	if st.Samples != 1 {
		t.Errorf("samples = %d, want 1", st.Samples)
	}
	if st.Location[0] == 0 {
		t.Error("location not updated from the applied sample")
	}
}

func TestRun_ReturnsOnContextCancel(t *testing.T) {
	host := viewport.NewMemoryHost()
	ch := &fakeChannel{}
	opener := &countingOpener{ch: ch}
	s := newTestSession(host, opener.open)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx) // must return promptly and tear down

	if got := s.State(); got != StateStopped {
		t.Errorf("state after Run = %v, want stopped", got)
	}
}

func TestDriverOpener_MissingLibrary(t *testing.T) {
	// On any platform where the vendor library cannot be loaded the opener
	// fails up front instead of handing back a dead channel.
	open := DriverOpener(config.DeviceConfig{AppName: "scnav-test", LibraryPath: "no/such/library.dll"})
	if _, err := open(); err == nil {
		t.Skip("vendor library unexpectedly present")
	}
}
