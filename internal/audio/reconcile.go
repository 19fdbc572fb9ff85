package audio

import "fmt"

// DisplayEntry is one row of the main panel's device list.
type DisplayEntry struct {
	Name        string `json:"name"`
	IsAvailable bool   `json:"isAvailable"`
	IsCurrent   bool   `json:"isCurrent"`
}

// Reconcile merges the configured device names with a live snapshot.
// The result has one entry per configured name, in configured order.
// Names without a live device are kept and marked unavailable.
func Reconcile(configured []string, available []Device, current *Device) []DisplayEntry {
	live := make(map[string]bool, len(available))
	for _, d := range available {
		live[d.Name] = true
	}

	entries := make([]DisplayEntry, 0, len(configured))
	for _, name := range configured {
		entries = append(entries, DisplayEntry{
			Name:        name,
			IsAvailable: live[name],
			IsCurrent:   current != nil && current.Name == name,
		})
	}
	return entries
}

// ResolveID finds the id of the device called name in available.
func ResolveID(name string, available []Device) (string, error) {
	for _, d := range available {
		if d.Name == name {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("%q: %w", name, ErrDeviceNotFound)
}
