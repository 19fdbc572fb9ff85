//go:build !unix

package cli

import "os"

type controls struct {
	ch          chan os.Signal
	test        os.Signal
	passthrough os.Signal
}

// controlSignals returns a channel that never fires; there is no
// SIGUSR1/SIGUSR2 here.
func controlSignals() controls {
	return controls{ch: make(chan os.Signal)}
}
