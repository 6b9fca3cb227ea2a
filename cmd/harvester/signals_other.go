//go:build !unix

package main

import "os"

// No SIGUSR1 here; use the HTTP control surface to skip terms.
var nextTermSignals []os.Signal
