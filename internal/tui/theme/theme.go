// Package theme holds audiopin's colour palettes and the dark/light
// detection that drives them.
package theme

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme defines a complete color palette for the TUI
type Theme struct {
	Name string
	Dark bool

	Base     lipgloss.Color // Background
	Surface0 lipgloss.Color // Surface
	Surface1 lipgloss.Color // Surface highlight

	Text    lipgloss.Color // Primary text
	Subtext lipgloss.Color // Secondary text
	Overlay lipgloss.Color // Dimmed text

	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Pinned is the accent shown while the window is held on top
	Pinned lipgloss.Color
}

// Catppuccin Mocha, the dark theme
var Dark = Theme{
	Name:     "dark",
	Dark:     true,
	Base:     lipgloss.Color("#1e1e2e"),
	Surface0: lipgloss.Color("#313244"),
	Surface1: lipgloss.Color("#45475a"),

	Text:    lipgloss.Color("#cdd6f4"),
	Subtext: lipgloss.Color("#a6adc8"),
	Overlay: lipgloss.Color("#6c7086"),

	Primary:   lipgloss.Color("#89b4fa"), // Blue
	Secondary: lipgloss.Color("#cba6f7"), // Mauve
	Success:   lipgloss.Color("#a6e3a1"), // Green
	Warning:   lipgloss.Color("#f9e2af"), // Yellow
	Error:     lipgloss.Color("#f38ba8"), // Red
	Info:      lipgloss.Color("#89dceb"), // Sky
	Pinned:    lipgloss.Color("#fab387"), // Peach
}

// Catppuccin Latte, the light theme
var Light = Theme{
	Name:     "light",
	Base:     lipgloss.Color("#eff1f5"),
	Surface0: lipgloss.Color("#ccd0da"),
	Surface1: lipgloss.Color("#bcc0cc"),

	Text:    lipgloss.Color("#4c4f69"),
	Subtext: lipgloss.Color("#6c6f85"),
	Overlay: lipgloss.Color("#7c7f93"),

	Primary:   lipgloss.Color("#1e66f5"),
	Secondary: lipgloss.Color("#8839ef"),
	Success:   lipgloss.Color("#40a02b"),
	Warning:   lipgloss.Color("#df8e1d"),
	Error:     lipgloss.Color("#d20f39"),
	Info:      lipgloss.Color("#04a5e5"),
	Pinned:    lipgloss.Color("#fe640b"),
}

// Plain is a no-color theme used when NO_COLOR is set.
var Plain = Theme{Name: "plain", Dark: true}

// NoColorEnabled reports whether colour output should be disabled.
// AUDIOPIN_NO_COLOR=0 forces colours on even when NO_COLOR is set.
func NoColorEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("AUDIOPIN_NO_COLOR"))) {
	case "0", "false", "no", "off":
		return false
	case "1", "true", "yes", "on":
		return true
	}
	_, noColorSet := os.LookupEnv("NO_COLOR")
	return noColorSet
}

// FromName returns a theme by name: dark, light, plain or auto.
func FromName(name string) Theme {
	if NoColorEnabled() {
		return Plain
	}

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "plain", "none", "no-color":
		return Plain
	case "dark", "mocha":
		return Dark
	case "light", "latte":
		return Light
	default:
		return autoTheme()
	}
}

// Current returns the theme named by AUDIOPIN_THEME, or auto-detects one.
func Current() Theme {
	return FromName(os.Getenv("AUDIOPIN_THEME"))
}

// Toggle flips between the dark and light palettes.
func Toggle(t Theme) Theme {
	if t.Name == Plain.Name {
		return t
	}
	if t.Dark {
		return Light
	}
	return Dark
}

// detectDarkBackground inspects the terminal to determine if a dark background is in use.
// It is defined as a variable for testability.
var detectDarkBackground = func() bool {
	return termenv.NewOutput(os.Stdout).HasDarkBackground()
}

var (
	cachedAutoTheme Theme
	autoThemeOnce   sync.Once
)

func resetAutoTheme() {
	autoThemeOnce = sync.Once{}
	cachedAutoTheme = Theme{}
}

func autoTheme() Theme {
	autoThemeOnce.Do(func() {
		cachedAutoTheme = Dark

		defer func() {
			if recover() != nil {
				cachedAutoTheme = Dark
			}
		}()

		if !detectDarkBackground() {
			cachedAutoTheme = Light
		}
	})
	return cachedAutoTheme
}
