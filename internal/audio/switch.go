package audio

import (
	"context"
	"fmt"
)

// Switch makes the device called name the default output. The name is
// resolved against a fresh device list, never a cached id, so a device that
// vanished since the caller last refreshed yields ErrDeviceNotFound.
func Switch(ctx context.Context, b Backend, name string) (Device, error) {
	available, err := b.List(ctx)
	if err != nil {
		return Device{}, err
	}
	id, err := ResolveID(name, available)
	if err != nil {
		return Device{}, err
	}
	if err := b.SetDefault(ctx, id); err != nil {
		return Device{}, fmt.Errorf("switching to %q: %w", name, err)
	}
	return Device{ID: id, Name: name, IsDefault: true}, nil
}
