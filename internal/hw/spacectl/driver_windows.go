//go:build windows

package spacectl

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/mkrigman/scnav/internal/debug"
)

// Default install paths of the SpaceControl vendor library.
const (
	dllPath64 = `C:\Program Files (x86)\SpaceControl\libs\win64\spc_ctrlr_64.dll`
	dllPath32 = `spc_ctrlr_32.dll`
)

// windowsDriver binds the vendor library through its C entry points:
//
//	int scConnect2(bool useDaemon, const char* applicationName);
//	int scDisconnect();
//	int scGetDevNum(int* numAll, int* numUsb, int* numOther);
//	int scFetchStdData(int devId, short* x, short* y, short* z,
//	                   short* a, short* b, short* c,
//	                   int* wheel, int* buttons, int* event,
//	                   long* tvSec, long* tvUsec);
//
// All return 0 on success. scFetchStdData is documented non-blocking.
type windowsDriver struct {
	connect      *windows.LazyProc
	disconnect   *windows.LazyProc
	getDevNum    *windows.LazyProc
	fetchStdData *windows.LazyProc
}

// LoadDriver loads the vendor library and resolves the entry points.
// libraryPath overrides the default install path when non-empty.
func LoadDriver(libraryPath string) (Driver, error) {
	path := libraryPath
	if path == "" {
		if unsafe.Sizeof(uintptr(0)) == 8 {
			path = dllPath64
		} else {
			path = dllPath32
		}
	}

	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrUnsupportedPlatform, path, err)
	}

	d := &windowsDriver{
		connect:      dll.NewProc("scConnect2"),
		disconnect:   dll.NewProc("scDisconnect"),
		getDevNum:    dll.NewProc("scGetDevNum"),
		fetchStdData: dll.NewProc("scFetchStdData"),
	}

	// Resolve everything up front so Fetch never fails at the binding
	// layer mid-session because of a missing symbol.
	for _, p := range []*windows.LazyProc{d.connect, d.disconnect, d.getDevNum, d.fetchStdData} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
		}
	}

	debug.Info("vendor library loaded: %s", path)
	return d, nil
}

func (d *windowsDriver) Connect(appName string) error {
	// NUL-terminated ASCII identity. The first argument disables daemon
	// mode, which this client never uses.
	name := append([]byte(appName), 0)
	r1, _, _ := d.connect.Call(0, uintptr(unsafe.Pointer(&name[0])))
	status := int(int32(r1))
	debug.Driver("scConnect2", status)
	if status != 0 {
		return fmt.Errorf("%w: scConnect2 returned %d", ErrConnection, status)
	}
	return nil
}

func (d *windowsDriver) Disconnect() error {
	r1, _, _ := d.disconnect.Call()
	status := int(int32(r1))
	debug.Driver("scDisconnect", status)
	if status != 0 {
		return fmt.Errorf("%w: scDisconnect returned %d", ErrConnection, status)
	}
	return nil
}

func (d *windowsDriver) DeviceCount() (all, usb, other int, err error) {
	var numAll, numUsb, numOther int32
	r1, _, _ := d.getDevNum.Call(
		uintptr(unsafe.Pointer(&numAll)),
		uintptr(unsafe.Pointer(&numUsb)),
		uintptr(unsafe.Pointer(&numOther)),
	)
	status := int(int32(r1))
	debug.Driver("scGetDevNum", status)
	if status != 0 {
		return 0, 0, 0, fmt.Errorf("%w: scGetDevNum returned %d", ErrConnection, status)
	}
	return int(numAll), int(numUsb), int(numOther), nil
}

func (d *windowsDriver) Fetch(deviceID int) (RawData, int, error) {
	var data RawData
	r1, _, _ := d.fetchStdData.Call(
		uintptr(deviceID),
		uintptr(unsafe.Pointer(&data.X)),
		uintptr(unsafe.Pointer(&data.Y)),
		uintptr(unsafe.Pointer(&data.Z)),
		uintptr(unsafe.Pointer(&data.A)),
		uintptr(unsafe.Pointer(&data.B)),
		uintptr(unsafe.Pointer(&data.C)),
		uintptr(unsafe.Pointer(&data.Wheel)),
		uintptr(unsafe.Pointer(&data.Buttons)),
		uintptr(unsafe.Pointer(&data.Event)),
		uintptr(unsafe.Pointer(&data.TvSec)),
		uintptr(unsafe.Pointer(&data.TvUsec)),
	)
	return data, int(int32(r1)), nil
}
