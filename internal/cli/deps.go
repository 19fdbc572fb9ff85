package cli

import (
	"time"

	"github.com/Dicklesworthstone/audiopin/internal/app"
	"github.com/Dicklesworthstone/audiopin/internal/audio"
	"github.com/Dicklesworthstone/audiopin/internal/config"
	"github.com/Dicklesworthstone/audiopin/internal/events"
	"github.com/Dicklesworthstone/audiopin/internal/notify"
	"github.com/Dicklesworthstone/audiopin/internal/prefs"
	"github.com/Dicklesworthstone/audiopin/internal/system"
	"github.com/Dicklesworthstone/audiopin/internal/window"
)

// windowClient lists windows and controls audiopin's own one
type windowClient interface {
	window.Lister
	window.Controller
}

// Backend constructors; tests swap these for fakes.
var (
	newAudioBackend = func(c *config.Config) audio.Backend {
		return audio.NewPactlBackend(system.NewRunner(c.Audio.Binary))
	}
	newWindowClient = func(c *config.Config) windowClient {
		return window.NewWmctrlClient(system.NewRunner(c.Window.Binary), c.Window.SelfTitle)
	}
)

func newPrefsStore(bus *events.Bus) *prefs.Store {
	return prefs.NewStore(cfg.PrefsPath, bus, logger.Component("prefs"))
}

// newService wires a Service from the loaded config.
func newService(watchPrefs bool) (*app.Service, error) {
	bus := events.NewBus(events.WithLogger(logger.Component("events")))
	wc := newWindowClient(cfg)
	return app.New(app.Options{
		Audio:      newAudioBackend(cfg),
		Windows:    wc,
		Focus:      wc,
		Prefs:      newPrefsStore(bus),
		Bus:        bus,
		Notifier:   notify.New(cfg.Notifications),
		Logger:     logger.Logger,
		DevicePoll: time.Duration(cfg.Poll.DevicesSeconds) * time.Second,
		WindowPoll: time.Duration(cfg.Poll.WindowsSeconds) * time.Second,
		WatchPrefs: watchPrefs,
	})
}
