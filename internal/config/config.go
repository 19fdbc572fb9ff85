// Package config loads audiopin's application configuration from TOML.
// User preferences (devices, windows, delay) live in a separate JSON
// document owned by internal/prefs.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Dicklesworthstone/audiopin/internal/notify"
)

const (
	// EnvPrefsPath overrides Config.PrefsPath
	EnvPrefsPath = "AUDIOPIN_PREFS"
	// EnvLogLevel overrides Config.Log.Level
	EnvLogLevel = "AUDIOPIN_LOG_LEVEL"
)

// Config represents the main configuration
type Config struct {
	PrefsPath     string        `toml:"prefs_path"`
	Poll          PollConfig    `toml:"poll"`
	Audio         AudioConfig   `toml:"audio"`
	Window        WindowConfig  `toml:"window"`
	Log           LogConfig     `toml:"log"`
	Notifications notify.Config `toml:"notifications"`
	UI            UIConfig      `toml:"ui"`
}

// PollConfig holds the background poll cadences in seconds
type PollConfig struct {
	DevicesSeconds int `toml:"devices_seconds"`
	WindowsSeconds int `toml:"windows_seconds"`
}

// AudioConfig selects the audio backend binary
type AudioConfig struct {
	Binary string `toml:"binary"`
}

// WindowConfig selects the window backend binary and audiopin's own title
type WindowConfig struct {
	Binary    string `toml:"binary"`
	SelfTitle string `toml:"self_title"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"` // Optional; stderr when empty
}

// UIConfig controls the terminal surfaces
type UIConfig struct {
	Theme string `toml:"theme"` // auto, dark or light
}

// DefaultPath returns the default config file path
func DefaultPath() string {
	return filepath.Join(Dir(), "config.toml")
}

// Dir returns audiopin's configuration directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "audiopin")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "audiopin")
}

// DefaultPrefsPath returns where the preferences document lives by default
func DefaultPrefsPath() string {
	return filepath.Join(Dir(), "preferences.json")
}

// Default returns the built-in configuration with environment overrides
// applied.
func Default() *Config {
	cfg := &Config{
		PrefsPath: DefaultPrefsPath(),
		Poll: PollConfig{
			DevicesSeconds: 5,
			WindowsSeconds: 2,
		},
		Audio: AudioConfig{Binary: "pactl"},
		Window: WindowConfig{
			Binary:    "wmctrl",
			SelfTitle: "audiopin",
		},
		Log:           LogConfig{Level: "info"},
		Notifications: notify.DefaultConfig(),
		UI:            UIConfig{Theme: "auto"},
	}
	cfg.applyEnv()
	return cfg
}

// Load reads the config at path (DefaultPath when empty) and fills any
// missing values from Default.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	def := Default()
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = def.PrefsPath
	}
	cfg.PrefsPath = ExpandHome(cfg.PrefsPath)
	if cfg.Poll.DevicesSeconds <= 0 {
		cfg.Poll.DevicesSeconds = def.Poll.DevicesSeconds
	}
	if cfg.Poll.WindowsSeconds <= 0 {
		cfg.Poll.WindowsSeconds = def.Poll.WindowsSeconds
	}
	if cfg.Audio.Binary == "" {
		cfg.Audio.Binary = def.Audio.Binary
	}
	if cfg.Window.Binary == "" {
		cfg.Window.Binary = def.Window.Binary
	}
	if cfg.Window.SelfTitle == "" {
		cfg.Window.SelfTitle = def.Window.SelfTitle
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if !md.IsDefined("notifications") {
		cfg.Notifications = def.Notifications
	}
	switch cfg.UI.Theme {
	case "auto", "dark", "light":
	default:
		cfg.UI.Theme = def.UI.Theme
	}

	cfg.applyEnv()
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file is
// missing. Parse errors are returned alongside the defaults so callers can
// warn and continue.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if os.IsNotExist(err) {
		return Default(), nil
	}
	return Default(), err
}

func (c *Config) applyEnv() {
	if p := os.Getenv(EnvPrefsPath); p != "" {
		c.PrefsPath = ExpandHome(p)
	}
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.Log.Level = lvl
	}
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[1:])
}

// CreateDefault creates a default config file
func CreateDefault() (string, error) {
	return CreateDefaultAt(DefaultPath())
}

// CreateDefaultAt writes the default config to path, creating its
// directory. An existing file is never overwritten.
func CreateDefaultAt(path string) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists: %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := Print(Default(), f); err != nil {
		return "", err
	}

	return path, nil
}

// Print writes config to a writer in TOML format
func Print(cfg *Config, w io.Writer) error {
	fmt.Fprintln(w, "# audiopin configuration")
	fmt.Fprintln(w, "# Devices, watched windows and the auto-hide delay live in the")
	fmt.Fprintln(w, "# preferences document, not here.")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "# Preferences document (env: AUDIOPIN_PREFS)")
	fmt.Fprintf(w, "prefs_path = %q\n", cfg.PrefsPath)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[poll]")
	fmt.Fprintln(w, "# How often to refresh audio devices and scan for watched windows")
	fmt.Fprintf(w, "devices_seconds = %d\n", cfg.Poll.DevicesSeconds)
	fmt.Fprintf(w, "windows_seconds = %d\n", cfg.Poll.WindowsSeconds)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[audio]")
	fmt.Fprintf(w, "binary = %q\n", cfg.Audio.Binary)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[window]")
	fmt.Fprintln(w, "# self_title must match audiopin's own window title")
	fmt.Fprintf(w, "binary = %q\n", cfg.Window.Binary)
	fmt.Fprintf(w, "self_title = %q\n", cfg.Window.SelfTitle)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[log]")
	fmt.Fprintln(w, "# debug, info, warn or error (env: AUDIOPIN_LOG_LEVEL)")
	fmt.Fprintf(w, "level = %q\n", cfg.Log.Level)
	if cfg.Log.File != "" {
		fmt.Fprintf(w, "file = %q\n", cfg.Log.File)
	} else {
		fmt.Fprintln(w, "# file = \"~/.config/audiopin/audiopin.log\"")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "[ui]")
	fmt.Fprintln(w, "# auto, dark or light")
	fmt.Fprintf(w, "theme = %q\n", cfg.UI.Theme)
	fmt.Fprintln(w)

	n := cfg.Notifications
	fmt.Fprintln(w, "[notifications]")
	fmt.Fprintf(w, "enabled = %t\n", n.Enabled)
	fmt.Fprintf(w, "events = [%s]\n", quoteList(n.Events))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[notifications.desktop]")
	fmt.Fprintf(w, "enabled = %t\n", n.Desktop.Enabled)
	fmt.Fprintf(w, "title = %q\n", n.Desktop.Title)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[notifications.webhook]")
	fmt.Fprintf(w, "enabled = %t\n", n.Webhook.Enabled)
	fmt.Fprintf(w, "url = %q\n", n.Webhook.URL)
	fmt.Fprintf(w, "method = %q\n", n.Webhook.Method)
	fmt.Fprintf(w, "template = %q\n", n.Webhook.Template)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[notifications.shell]")
	fmt.Fprintf(w, "enabled = %t\n", n.Shell.Enabled)
	fmt.Fprintf(w, "command = %q\n", n.Shell.Command)
	fmt.Fprintf(w, "pass_json = %t\n", n.Shell.PassJSON)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "[notifications.log]")
	fmt.Fprintf(w, "enabled = %t\n", n.Log.Enabled)
	fmt.Fprintf(w, "path = %q\n", n.Log.Path)

	return nil
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, ", ")
}
