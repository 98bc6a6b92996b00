package spacectl

import (
	"fmt"
	"sync/atomic"

	"github.com/mkrigman/scnav/internal/debug"
)

// channelOpen guards the process-wide single-instance invariant: exactly
// one Channel may exist at a time.
var channelOpen atomic.Bool

// Channel owns one open connection to the vendor driver and the selected
// device index. It is created on first need, held across many poll
// cycles, and closed exactly once.
type Channel struct {
	drv      Driver
	deviceID int
	closed   bool
}

// Open connects to the driver, enumerates devices and selects index 0.
// It fails with ErrChannelBusy if a channel is already open, with a
// wrapped ErrConnection if connect or the count query fail, and with
// ErrNoDevice if nothing is attached. On any failure the driver
// connection is torn down before returning.
func Open(drv Driver, appName string) (*Channel, error) {
	if !channelOpen.CompareAndSwap(false, true) {
		return nil, ErrChannelBusy
	}
	ok := false
	defer func() {
		if !ok {
			channelOpen.Store(false)
		}
	}()

	if err := drv.Connect(appName); err != nil {
		return nil, fmt.Errorf("connect as %q: %w", appName, err)
	}

	all, usb, other, err := drv.DeviceCount()
	if err != nil {
		disconnectQuiet(drv)
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	if all <= 0 {
		disconnectQuiet(drv)
		return nil, ErrNoDevice
	}

	// No selection policy beyond "first enumerated device".
	debug.Info("device channel open: %d device(s) (%d usb, %d other), using index 0", all, usb, other)
	ok = true
	return &Channel{drv: drv, deviceID: 0}, nil
}

// FetchSample issues one non-blocking fetch. A nonzero driver status is
// the normal idle case at high poll rates and yields (nil, nil); it is
// never escalated to an error. Only a binding-level fault returns an
// error (wrapped ErrChannelFault), and that is the caller's cue to close
// the channel.
func (c *Channel) FetchSample() (*Sample, error) {
	data, status, err := c.drv.Fetch(c.deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelFault, err)
	}
	if status != 0 {
		return nil, nil
	}
	return &Sample{
		TX: data.X, TY: data.Y, TZ: data.Z,
		RX: data.A, RY: data.B, RZ: data.C,
		Event: data.Event,
	}, nil
}

// Close disconnects from the driver. Failures are swallowed: by this
// point the channel is being torn down regardless of the outcome. Safe to
// call more than once.
func (c *Channel) Close() {
	if c.closed {
		return
	}
	c.closed = true
	disconnectQuiet(c.drv)
	channelOpen.Store(false)
	debug.Info("device channel closed")
}

// disconnectQuiet is the explicit best-effort disconnect contract: the
// result is logged for debuggability only.
func disconnectQuiet(drv Driver) {
	if err := drv.Disconnect(); err != nil {
		debug.Verbose("disconnect failed (ignored): %v", err)
	}
}
