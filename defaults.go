package pocketflow

import (
	"sync"
	"time"
)

// globalDefaults holds the options every new node starts from.
var globalDefaults = &nodeDefaults{
	maxAttempts: 1,
}

// nodeDefaults contains default configuration that can be applied to nodes.
type nodeDefaults struct {
	mu sync.RWMutex

	maxAttempts int
	wait        time.Duration
}

// SetDefaults configures the defaults for nodes created afterwards.
// Only retry settings carry over; declared actions are always per node.
func SetDefaults(opts ...Option) {
	globalDefaults.mu.Lock()
	defer globalDefaults.mu.Unlock()

	tempOpts := nodeOptions{
		maxAttempts: globalDefaults.maxAttempts,
		wait:        globalDefaults.wait,
	}
	for _, opt := range opts {
		opt(&tempOpts)
	}

	globalDefaults.maxAttempts = tempOpts.maxAttempts
	globalDefaults.wait = tempOpts.wait
}

// getDefaults returns a copy of the current global defaults.
func getDefaults() nodeOptions {
	globalDefaults.mu.RLock()
	defer globalDefaults.mu.RUnlock()

	return nodeOptions{
		maxAttempts: globalDefaults.maxAttempts,
		wait:        globalDefaults.wait,
	}
}

// ResetDefaults resets all global defaults to their initial values.
func ResetDefaults() {
	globalDefaults.mu.Lock()
	defer globalDefaults.mu.Unlock()

	globalDefaults.maxAttempts = 1
	globalDefaults.wait = 0
}
