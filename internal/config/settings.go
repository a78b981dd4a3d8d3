package config

import "sync"

// RuntimeSettings holds values that can be tuned while a planet is running.
type RuntimeSettings struct {
	mu                sync.RWMutex
	maxBuildsPerFrame int
	splitBias         float64
}

var globalRuntimeSettings = &RuntimeSettings{
	maxBuildsPerFrame: 32,  // default value
	splitBias:         1.0, // multiplies both LOD thresholds
}

// GetMaxBuildsPerFrame returns how many chunk builds the LOD loop may request per frame
func GetMaxBuildsPerFrame() int {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.maxBuildsPerFrame
}

// SetMaxBuildsPerFrame sets the per-frame build cap
func SetMaxBuildsPerFrame(n int) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()

	// Clamp to reasonable values
	if n < 1 {
		n = 1
	}
	if n > 4096 {
		n = 4096
	}

	globalRuntimeSettings.maxBuildsPerFrame = n
}

// GetSplitBias returns the detail bias applied to split and merge thresholds
func GetSplitBias() float64 {
	globalRuntimeSettings.mu.RLock()
	defer globalRuntimeSettings.mu.RUnlock()
	return globalRuntimeSettings.splitBias
}

// SetSplitBias scales both thresholds; values above 1 add detail.
// Scaling both keeps the hysteresis band intact.
func SetSplitBias(bias float64) {
	globalRuntimeSettings.mu.Lock()
	defer globalRuntimeSettings.mu.Unlock()

	if bias < 0.25 {
		bias = 0.25
	}
	if bias > 4 {
		bias = 4
	}

	globalRuntimeSettings.splitBias = bias
}

// Apply copies file-level defaults into the runtime settings.
func (c *Config) Apply() {
	if c.LOD.MaxBuildsPerFrame > 0 {
		SetMaxBuildsPerFrame(c.LOD.MaxBuildsPerFrame)
	}
}
