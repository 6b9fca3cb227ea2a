//go:build unix

package main

import (
	"os"
	"syscall"
)

// nextTermSignals advance the running crawl to its next search term.
var nextTermSignals = []os.Signal{syscall.SIGUSR1}
