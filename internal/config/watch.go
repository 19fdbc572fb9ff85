package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Dicklesworthstone/audiopin/internal/watcher"
)

// Watch reloads the config file at path whenever it changes and passes the
// result to onChange. Parse failures go to onError and keep the previous
// config in effect. The returned func stops watching.
func Watch(path string, onChange func(*Config), onError func(error)) (func(), error) {
	if path == "" {
		path = DefaultPath()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	w, err := watcher.WatchFile(absPath, func() {
		cfg, err := Load(absPath)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading config: %w", err))
			}
			return
		}
		if onChange != nil {
			onChange(cfg)
		}
	}, watcher.WithDebounceDuration(500*time.Millisecond), watcher.WithErrorHandler(onError))
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}

	return func() {
		w.Close()
	}, nil
}
