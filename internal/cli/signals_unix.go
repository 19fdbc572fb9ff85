//go:build unix

package cli

import (
	"os"
	"os/signal"
	"syscall"
)

type controls struct {
	ch          chan os.Signal
	test        os.Signal
	passthrough os.Signal
}

func controlSignals() controls {
	c := controls{
		ch:          make(chan os.Signal, 1),
		test:        syscall.SIGUSR1,
		passthrough: syscall.SIGUSR2,
	}
	signal.Notify(c.ch, c.test, c.passthrough)
	return c
}
