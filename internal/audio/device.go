// Package audio models audio output devices, reconciles them against the
// user's configured device names and switches the system default sink.
package audio

import (
	"context"
	"errors"
)

// ErrDeviceNotFound is returned when a configured device name has no live
// match at the moment a switch is requested.
var ErrDeviceNotFound = errors.New("audio device not found")

// Device is an immutable snapshot of one output device.
type Device struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

// Backend is the OS capability for enumerating and switching output devices.
type Backend interface {
	// List returns every active output device.
	List(ctx context.Context) ([]Device, error)
	// Current returns the default output device, or nil when none is set.
	Current(ctx context.Context) (*Device, error)
	// SetDefault makes the device with the given id the default output.
	SetDefault(ctx context.Context, id string) error
}
