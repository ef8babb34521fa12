//go:build windows

package main

import (
	"os"
)

// setupResizeSignal returns a channel that never fires; Windows has no
// SIGWINCH.
func setupResizeSignal() (chan os.Signal, func()) {
	return make(chan os.Signal, 1), func() {}
}
