package spacectl

import "errors"

// Sample is one snapshot of six-axis motion plus the raw event code,
// exactly as read from the device. Axes are the driver's signed 16-bit
// values with no implicit scaling.
type Sample struct {
	TX, TY, TZ int16 // translation: right/left, up/down, forward/backward
	RX, RY, RZ int16 // rotation: pitch, yaw, roll
	Event      int32 // raw event/button code
}

// RawData mirrors every output parameter of scFetchStdData. The channel
// surfaces only the axes and event code; wheel, buttons and the driver
// timestamps stay at this layer.
type RawData struct {
	X, Y, Z int16
	A, B, C int16
	Wheel   int32
	Buttons int32
	Event   int32
	TvSec   int32
	TvUsec  int32
}

// Driver is the minimal client surface of the vendor library. It exists
// so the channel and scheduler can be exercised without the real library
// (MockDriver) while the windows binding implements the actual ABI.
type Driver interface {
	// Connect establishes the driver channel, identifying as appName.
	// Daemon mode is never used.
	Connect(appName string) error

	// Disconnect tears the driver channel down.
	Disconnect() error

	// DeviceCount enumerates attached devices (all, usb, other).
	DeviceCount() (all, usb, other int, err error)

	// Fetch issues one non-blocking read for the given device index.
	// status is the raw driver status: 0 = new data, nonzero = no new
	// data (or a transient condition the vendor API does not
	// distinguish). err is non-nil only for binding-level faults.
	Fetch(deviceID int) (data RawData, status int, err error)
}

// Error taxonomy. Open-time failures stop the caller's retry loop;
// ErrChannelFault is the only error FetchSample can return.
var (
	// ErrUnsupportedPlatform means the vendor library does not exist for
	// the current OS/architecture. This is a hard restriction, not a
	// soft fallback.
	ErrUnsupportedPlatform = errors.New("spacectl: vendor library unavailable on this platform")

	// ErrConnection means a connect or device-count call returned a
	// failure status.
	ErrConnection = errors.New("spacectl: driver call failed")

	// ErrNoDevice means the driver enumerated zero devices.
	ErrNoDevice = errors.New("spacectl: no SpaceController devices found")

	// ErrChannelBusy means a second channel was opened while one exists.
	// The device is a single-instance resource, not a pool.
	ErrChannelBusy = errors.New("spacectl: a device channel is already open")

	// ErrChannelFault wraps a binding-level fetch failure.
	ErrChannelFault = errors.New("spacectl: device channel fault")
)
