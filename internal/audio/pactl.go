package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Dicklesworthstone/audiopin/internal/system"
)

// PactlBackend drives PulseAudio / PipeWire through the pactl CLI.
// Device ids are sink names; display names are sink descriptions.
type PactlBackend struct {
	cmd system.Commander
}

// NewPactlBackend creates a backend using the given commander
func NewPactlBackend(cmd system.Commander) *PactlBackend {
	return &PactlBackend{cmd: cmd}
}

type pactlSink struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List returns all sinks, flagging the current default.
func (b *PactlBackend) List(ctx context.Context) ([]Device, error) {
	out, err := b.cmd.Run(ctx, "--format=json", "list", "sinks")
	if err != nil {
		return nil, fmt.Errorf("listing sinks: %w", err)
	}
	sinks, err := parseSinks(out)
	if err != nil {
		return nil, err
	}

	defaultName, err := b.defaultSink(ctx)
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(sinks))
	for _, s := range sinks {
		devices = append(devices, Device{
			ID:        s.Name,
			Name:      displayName(s),
			IsDefault: s.Name == defaultName,
		})
	}
	return devices, nil
}

// Current returns the default sink, or nil if pactl reports none.
func (b *PactlBackend) Current(ctx context.Context) (*Device, error) {
	devices, err := b.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range devices {
		if devices[i].IsDefault {
			d := devices[i]
			return &d, nil
		}
	}
	return nil, nil
}

// SetDefault switches the default sink.
func (b *PactlBackend) SetDefault(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("empty sink id: %w", ErrDeviceNotFound)
	}
	if _, err := b.cmd.Run(ctx, "set-default-sink", id); err != nil {
		return fmt.Errorf("setting default sink %s: %w", id, err)
	}
	return nil
}

func (b *PactlBackend) defaultSink(ctx context.Context) (string, error) {
	out, err := b.cmd.Run(ctx, "get-default-sink")
	if err != nil {
		return "", fmt.Errorf("reading default sink: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func parseSinks(out string) ([]pactlSink, error) {
	if strings.TrimSpace(out) == "" {
		return nil, nil
	}
	var sinks []pactlSink
	if err := json.Unmarshal([]byte(out), &sinks); err != nil {
		return nil, fmt.Errorf("parsing pactl output: %w", err)
	}
	return sinks, nil
}

func displayName(s pactlSink) string {
	if s.Description != "" {
		return s.Description
	}
	return s.Name
}
