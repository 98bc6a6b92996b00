//go:build !windows

package spacectl

import "fmt"

// LoadDriver reports that no vendor library exists for this platform.
// The SpaceControl library is shipped for windows only; on anything else
// this is a definitive startup error, not a fallback.
func LoadDriver(libraryPath string) (Driver, error) {
	return nil, fmt.Errorf("%w (vendor library targets windows only)", ErrUnsupportedPlatform)
}
