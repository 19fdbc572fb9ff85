package events

import "github.com/Dicklesworthstone/audiopin/internal/audio"

// Topic names a broadcast channel
type Topic string

const (
	TopicConfigUpdated      Topic = "config-updated"
	TopicPinModeChanged     Topic = "pin-mode-changed"
	TopicTestCountdown      Topic = "test-countdown"
	TopicDarkModeChanged    Topic = "dark-mode-changed"
	TopicCountdownTick      Topic = "pin-countdown"
	TopicDevicesRefreshed   Topic = "devices-refreshed"
	TopicDeviceSwitched     Topic = "device-switched"
	TopicPassthroughChanged Topic = "passthrough-mode-changed"
)

// Message is a tagged payload; the tag is its topic.
type Message interface {
	Topic() Topic
}

// ConfigUpdated is published after the preferences document changed,
// whether from the preferences surface or an external edit.
type ConfigUpdated struct {
	Devices              []string `json:"devices"`
	MonitoredWindows     []string `json:"monitoredWindows"`
	AutoHideDelaySeconds int      `json:"autoHideDelaySeconds"`
}

func (ConfigUpdated) Topic() Topic { return TopicConfigUpdated }

// PinModeChanged carries the new pinned flag.
type PinModeChanged bool

func (PinModeChanged) Topic() Topic { return TopicPinModeChanged }

// TestCountdown asks the main surface to run a pin countdown of Delay
// seconds, as if a watched window had closed.
type TestCountdown struct {
	Delay int `json:"delay"`
}

func (TestCountdown) Topic() Topic { return TopicTestCountdown }

// DarkModeChanged carries whether the dark palette is active.
type DarkModeChanged bool

func (DarkModeChanged) Topic() Topic { return TopicDarkModeChanged }

// CountdownTick reports the seconds left before auto-unpin. It is a
// display concern only; expiry is decided by the pin controller.
type CountdownTick struct {
	Remaining int `json:"remaining"`
}

func (CountdownTick) Topic() Topic { return TopicCountdownTick }

// DevicesRefreshed carries the reconciled device list after a device poll.
type DevicesRefreshed struct {
	Entries []audio.DisplayEntry `json:"entries"`
	Current string               `json:"current,omitempty"`
}

func (DevicesRefreshed) Topic() Topic { return TopicDevicesRefreshed }

// DeviceSwitched reports the outcome of a switch request.
type DeviceSwitched struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (DeviceSwitched) Topic() Topic { return TopicDeviceSwitched }

// PassthroughChanged carries the new passthrough flag.
type PassthroughChanged bool

func (PassthroughChanged) Topic() Topic { return TopicPassthroughChanged }
