// Package notify sends audiopin notifications through desktop, webhook,
// shell and log channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"text/template"
	"time"
)

// EventType represents the type of notification event
type EventType string

const (
	EventWindowClosed       EventType = "window.closed"        // Watched window disappeared
	EventDeviceUnavailable  EventType = "device.unavailable"   // Switch target not present
	EventDeviceSwitched     EventType = "device.switched"      // Default output changed
	EventDeviceSwitchFailed EventType = "device.switch_failed" // Backend refused the switch
	EventPrefsCorrupt       EventType = "prefs.corrupt"        // Preferences reset to defaults
)

// Event represents a notification event
type Event struct {
	Type      EventType         `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Window    string            `json:"window,omitempty"`
	Device    string            `json:"device,omitempty"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// Config holds notification configuration
type Config struct {
	Enabled bool     `toml:"enabled"`
	Events  []string `toml:"events"` // Which events to notify on

	Desktop DesktopConfig `toml:"desktop"`
	Webhook WebhookConfig `toml:"webhook"`
	Shell   ShellConfig   `toml:"shell"`
	Log     LogConfig     `toml:"log"`
}

// DesktopConfig configures desktop notifications
type DesktopConfig struct {
	Enabled bool   `toml:"enabled"`
	Title   string `toml:"title"` // Default title prefix
}

// WebhookConfig configures webhook notifications
type WebhookConfig struct {
	Enabled  bool              `toml:"enabled"`
	URL      string            `toml:"url"`
	Template string            `toml:"template"` // Go template for payload
	Method   string            `toml:"method"`   // HTTP method (default POST)
	Headers  map[string]string `toml:"headers"`
}

// ShellConfig configures shell command notifications
type ShellConfig struct {
	Enabled  bool   `toml:"enabled"`
	Command  string `toml:"command"`
	PassJSON bool   `toml:"pass_json"` // Pass event as JSON stdin
}

// LogConfig configures log file notifications
type LogConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// DefaultConfig returns a default notification configuration
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Events:  []string{string(EventDeviceUnavailable), string(EventDeviceSwitchFailed), string(EventPrefsCorrupt)},
		Desktop: DesktopConfig{
			Enabled: true,
			Title:   "audiopin",
		},
		Webhook: WebhookConfig{
			Enabled:  false,
			Method:   "POST",
			Template: `{"text": "audiopin: {{.Type}} - {{.Message}}"}`,
		},
		Shell: ShellConfig{
			Enabled:  false,
			PassJSON: true,
		},
		Log: LogConfig{
			Enabled: false,
			Path:    "~/.config/audiopin/notifications.log",
		},
	}
}

// Notifier sends notifications through configured channels
type Notifier struct {
	config     Config
	enabledSet map[EventType]bool
	mu         sync.Mutex
	httpClient *http.Client
	desktop    func(ctx context.Context, title, message string) error
}

// New creates a new Notifier with the given configuration
func New(cfg Config) *Notifier {
	n := &Notifier{
		config:     cfg,
		enabledSet: make(map[EventType]bool),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		desktop:    sendDesktopNotification,
	}

	for _, e := range cfg.Events {
		n.enabledSet[EventType(e)] = true
	}

	return n
}

// Enabled reports whether an event type would be delivered.
func (n *Notifier) Enabled(t EventType) bool {
	return n != nil && n.config.Enabled && n.enabledSet[t]
}

// Notify sends a notification for the given event. A nil Notifier is a
// no-op so callers can hold one unconditionally.
func (n *Notifier) Notify(ctx context.Context, event Event) error {
	if !n.Enabled(event.Type) {
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	var (
		wg    sync.WaitGroup
		errs  []error
		errMu sync.Mutex
	)

	addErr := func(err error) {
		if err != nil {
			errMu.Lock()
			errs = append(errs, err)
			errMu.Unlock()
		}
	}

	send := func(name string, fn func(context.Context, Event) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, event); err != nil {
				addErr(fmt.Errorf("%s: %w", name, err))
			}
		}()
	}

	if n.config.Desktop.Enabled {
		send("desktop", n.sendDesktop)
	}
	if n.config.Webhook.Enabled && n.config.Webhook.URL != "" {
		send("webhook", n.sendWebhook)
	}
	if n.config.Shell.Enabled && n.config.Shell.Command != "" {
		send("shell", n.sendShell)
	}
	if n.config.Log.Enabled && n.config.Log.Path != "" {
		send("log", n.sendLog)
	}

	wg.Wait()
	return errors.Join(errs...)
}

func (n *Notifier) sendDesktop(ctx context.Context, event Event) error {
	title := n.config.Desktop.Title
	if title == "" {
		title = "audiopin"
	}

	message := event.Message
	if message == "" {
		message = string(event.Type)
	}
	return n.desktop(ctx, title, message)
}

func sendDesktopNotification(ctx context.Context, title, message string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return exec.CommandContext(ctx, "osascript", "-e", script).Run()
	case "linux":
		if _, err := exec.LookPath("notify-send"); err != nil {
			return fmt.Errorf("notify-send not found")
		}
		return exec.CommandContext(ctx, "notify-send", "--app-name=audiopin", title, message).Run()
	default:
		return fmt.Errorf("desktop notifications not supported on %s", runtime.GOOS)
	}
}

func (n *Notifier) sendWebhook(ctx context.Context, event Event) error {
	tmplStr := n.config.Webhook.Template
	if tmplStr == "" {
		tmplStr = `{"event":"{{.Type}}","message":"{{.Message}}","timestamp":"{{.Timestamp}}"}`
	}

	tmpl, err := template.New("webhook").Parse(tmplStr)
	if err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, event); err != nil {
		return fmt.Errorf("template execution failed: %w", err)
	}

	method := n.config.Webhook.Method
	if method == "" {
		method = http.MethodPost
	}

	req, err := http.NewRequestWithContext(ctx, method, n.config.Webhook.URL, &body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range n.config.Webhook.Headers {
		req.Header.Set(k, v)
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

func (n *Notifier) sendShell(ctx context.Context, event Event) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", expandHome(n.config.Shell.Command))

	if n.config.Shell.PassJSON {
		eventJSON, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		cmd.Stdin = bytes.NewReader(eventJSON)
	}

	cmd.Env = append(os.Environ(),
		fmt.Sprintf("AUDIOPIN_EVENT_TYPE=%s", event.Type),
		fmt.Sprintf("AUDIOPIN_EVENT_MESSAGE=%s", event.Message),
		fmt.Sprintf("AUDIOPIN_EVENT_WINDOW=%s", event.Window),
		fmt.Sprintf("AUDIOPIN_EVENT_DEVICE=%s", event.Device),
	)

	return cmd.Run()
}

func (n *Notifier) sendLog(_ context.Context, event Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	path := expandHome(n.config.Log.Path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("[%s] %s: %s", event.Timestamp.Format(time.RFC3339), event.Type, event.Message)
	if _, err := fmt.Fprintln(f, line); err != nil {
		return fmt.Errorf("failed to write to log: %w", err)
	}

	return nil
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

// NewWindowClosedEvent reports that a watched window went away
func NewWindowClosedEvent(title string, delay int) Event {
	return Event{
		Type:    EventWindowClosed,
		Window:  title,
		Message: fmt.Sprintf("%s closed, pinned for %ds", title, delay),
		Details: map[string]string{"delay_seconds": fmt.Sprintf("%d", delay)},
	}
}

// NewDeviceUnavailableEvent reports a switch to a device that is not present
func NewDeviceUnavailableEvent(name string) Event {
	return Event{
		Type:    EventDeviceUnavailable,
		Device:  name,
		Message: fmt.Sprintf("Audio device %q is not available", name),
	}
}

// NewDeviceSwitchedEvent reports a successful switch
func NewDeviceSwitchedEvent(name string) Event {
	return Event{
		Type:    EventDeviceSwitched,
		Device:  name,
		Message: fmt.Sprintf("Switched output to %s", name),
	}
}

// NewDeviceSwitchFailedEvent reports a backend failure during a switch
func NewDeviceSwitchFailedEvent(name string, err error) Event {
	return Event{
		Type:    EventDeviceSwitchFailed,
		Device:  name,
		Message: fmt.Sprintf("Could not switch to %s: %v", name, err),
	}
}

// NewPrefsCorruptEvent reports that the preferences file was unreadable
func NewPrefsCorruptEvent(path string) Event {
	return Event{
		Type:    EventPrefsCorrupt,
		Message: fmt.Sprintf("Preferences at %s were unreadable, using defaults", path),
		Details: map[string]string{"path": path},
	}
}
