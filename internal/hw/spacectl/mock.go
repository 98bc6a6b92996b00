package spacectl

import "github.com/mkrigman/scnav/internal/debug"

// MockDriver is a Driver that replays scripted data. Used for development
// on machines without the vendor library and for testing the channel and
// scheduler layers.
type MockDriver struct {
	Devices int       // enumerated device count
	Data    []RawData // replayed in order; when exhausted, Fetch reports no data
	Loop    bool      // replay Data forever instead of draining it

	ConnectErr error // returned by Connect when set
	CountErr   error // returned by DeviceCount when set
	FetchErr   error // returned by Fetch when set (binding fault)

	next        int
	Connected   bool
	Disconnects int
}

// NewMockDriver returns a mock with one enumerated device and no data.
func NewMockDriver() *MockDriver {
	return &MockDriver{Devices: 1}
}

func (m *MockDriver) Connect(appName string) error {
	debug.Driver("scConnect2 (mock)", 0)
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.Connected = true
	return nil
}

func (m *MockDriver) Disconnect() error {
	debug.Driver("scDisconnect (mock)", 0)
	m.Connected = false
	m.Disconnects++
	return nil
}

func (m *MockDriver) DeviceCount() (all, usb, other int, err error) {
	if m.CountErr != nil {
		return 0, 0, 0, m.CountErr
	}
	return m.Devices, m.Devices, 0, nil
}

func (m *MockDriver) Fetch(deviceID int) (RawData, int, error) {
	if m.FetchErr != nil {
		return RawData{}, 0, m.FetchErr
	}
	if len(m.Data) == 0 || (!m.Loop && m.next >= len(m.Data)) {
		return RawData{}, 1, nil // no new data this tick
	}
	d := m.Data[m.next%len(m.Data)]
	m.next++
	return d, 0, nil
}
