// Package displayreg is a registry of initialized displays.
//
// A driver publishes its device once the panel is ready; applications look it
// up by name and query its geometry and pixel format before drawing.
package displayreg

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"periph.io/x/conn/v3/display"
)

// PixelFormat identifies the in-memory layout of a pixel.
type PixelFormat uint8

const (
	PixelFormatUnknown PixelFormat = iota
	PixelFormatRGB565
)

func (p PixelFormat) String() string {
	switch p {
	case PixelFormatRGB565:
		return "RGB565"
	default:
		return "Unknown"
	}
}

// Info is the immutable geometry and pixel format of a display.
type Info struct {
	Width        uint16
	Height       uint16
	BitsPerPixel uint8
	PixelFormat  PixelFormat
}

// Device is a display that can be registered.
type Device interface {
	display.Drawer
	// Info returns the geometry and pixel format of the display.
	Info() Info
}

var (
	// ErrExists is returned when registering a name that is already in use.
	ErrExists = errors.New("displayreg: name already registered")
	// ErrNotFound is returned when unregistering an unknown name.
	ErrNotFound = errors.New("displayreg: name not registered")
)

var (
	mu     sync.Mutex
	byName = map[string]Device{}
)

// Register publishes d under name.
func Register(name string, d Device) error {
	if name == "" {
		return errors.New("displayreg: can't register a device with no name")
	}
	if d == nil {
		return errors.New("displayreg: can't register nil device")
	}
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byName[name]; ok {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}
	byName[name] = d
	return nil
}

// Unregister removes a device previously registered.
func Unregister(name string) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := byName[name]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	delete(byName, name)
	return nil
}

// ByName returns the device registered under name, or nil.
func ByName(name string) Device {
	mu.Lock()
	defer mu.Unlock()
	return byName[name]
}

// All returns the names of all registered devices, sorted.
func All() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(byName))
	for name := range byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
