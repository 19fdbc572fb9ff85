// Package prefs owns the user preferences document: configured audio
// devices, monitored window titles and the auto-hide delay.
package prefs

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Dicklesworthstone/audiopin/internal/events"
)

const (
	MaxDevices          = 4
	MaxWindows          = 10
	MaxDelaySeconds     = 60
	DefaultDelaySeconds = 5
)

var (
	ErrLimitReached     = errors.New("limit reached")
	ErrDuplicate        = errors.New("already present")
	ErrNotPresent       = errors.New("not present")
	ErrDelayOutOfRange  = fmt.Errorf("delay must be between 0 and %d seconds", MaxDelaySeconds)
	ErrEmptyName        = errors.New("name must not be empty")
	ErrPositionOutRange = errors.New("position out of range")
	ErrCorrupt          = errors.New("preferences document is corrupt")
)

// Preferences is the persisted user document.
type Preferences struct {
	ConfiguredDevices    []string `json:"configuredDevices" yaml:"configuredDevices"`
	MonitoredWindows     []string `json:"monitoredWindows" yaml:"monitoredWindows"`
	AutoHideDelaySeconds int      `json:"autoHideDelaySeconds" yaml:"autoHideDelaySeconds"`
}

// Default returns empty lists and the default delay.
func Default() Preferences {
	return Preferences{
		ConfiguredDevices:    []string{},
		MonitoredWindows:     []string{},
		AutoHideDelaySeconds: DefaultDelaySeconds,
	}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	return Preferences{
		ConfiguredDevices:    append([]string{}, p.ConfiguredDevices...),
		MonitoredWindows:     append([]string{}, p.MonitoredWindows...),
		AutoHideDelaySeconds: p.AutoHideDelaySeconds,
	}
}

// Equal compares two documents field by field.
func (p Preferences) Equal(o Preferences) bool {
	return p.AutoHideDelaySeconds == o.AutoHideDelaySeconds &&
		slices.Equal(p.ConfiguredDevices, o.ConfiguredDevices) &&
		slices.Equal(p.MonitoredWindows, o.MonitoredWindows)
}

// Validate checks every bound of the document.
func (p Preferences) Validate() error {
	if err := validateList("devices", p.ConfiguredDevices, MaxDevices); err != nil {
		return err
	}
	if err := validateList("windows", p.MonitoredWindows, MaxWindows); err != nil {
		return err
	}
	if p.AutoHideDelaySeconds < 0 || p.AutoHideDelaySeconds > MaxDelaySeconds {
		return fmt.Errorf("%w: %d", ErrDelayOutOfRange, p.AutoHideDelaySeconds)
	}
	return nil
}

func validateList(what string, items []string, limit int) error {
	if len(items) > limit {
		return fmt.Errorf("%s: %w (%d > %d)", what, ErrLimitReached, len(items), limit)
	}
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) == "" {
			return fmt.Errorf("%s: %w", what, ErrEmptyName)
		}
		if _, dup := seen[it]; dup {
			return fmt.Errorf("%s: %q %w", what, it, ErrDuplicate)
		}
		seen[it] = struct{}{}
	}
	return nil
}

// Message converts the document to its config-updated broadcast.
func (p Preferences) Message() events.ConfigUpdated {
	c := p.Clone()
	return events.ConfigUpdated{
		Devices:              c.ConfiguredDevices,
		MonitoredWindows:     c.MonitoredWindows,
		AutoHideDelaySeconds: c.AutoHideDelaySeconds,
	}
}

// AddDevice appends a device name. The list is left untouched on error.
func (p *Preferences) AddDevice(name string) error {
	return addItem(&p.ConfiguredDevices, name, MaxDevices)
}

// RemoveDevice removes a device name.
func (p *Preferences) RemoveDevice(name string) error {
	return removeItem(&p.ConfiguredDevices, name)
}

// MoveDevice moves a device to a zero-based position.
func (p *Preferences) MoveDevice(name string, to int) error {
	i := slices.Index(p.ConfiguredDevices, name)
	if i < 0 {
		return fmt.Errorf("device %q: %w", name, ErrNotPresent)
	}
	if to < 0 || to >= len(p.ConfiguredDevices) {
		return fmt.Errorf("%w: %d", ErrPositionOutRange, to)
	}
	list := slices.Delete(slices.Clone(p.ConfiguredDevices), i, i+1)
	p.ConfiguredDevices = slices.Insert(list, to, name)
	return nil
}

// AddWindow appends a window title.
func (p *Preferences) AddWindow(title string) error {
	return addItem(&p.MonitoredWindows, title, MaxWindows)
}

// RemoveWindow removes a window title.
func (p *Preferences) RemoveWindow(title string) error {
	return removeItem(&p.MonitoredWindows, title)
}

// SetDelay sets the auto-hide delay in seconds.
func (p *Preferences) SetDelay(seconds int) error {
	if seconds < 0 || seconds > MaxDelaySeconds {
		return fmt.Errorf("%w: %d", ErrDelayOutOfRange, seconds)
	}
	p.AutoHideDelaySeconds = seconds
	return nil
}

func addItem(list *[]string, name string, limit int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	if slices.Contains(*list, name) {
		return fmt.Errorf("%q %w", name, ErrDuplicate)
	}
	if len(*list) >= limit {
		return fmt.Errorf("%w: at most %d entries", ErrLimitReached, limit)
	}
	*list = append(slices.Clone(*list), name)
	return nil
}

func removeItem(list *[]string, name string) error {
	i := slices.Index(*list, name)
	if i < 0 {
		return fmt.Errorf("%q %w", name, ErrNotPresent)
	}
	*list = slices.Delete(slices.Clone(*list), i, i+1)
	return nil
}
