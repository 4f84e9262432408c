package config

import "sync"

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// SetGlobalConfig stores the process-wide configuration. Must be called before
// resource manager initialization.
func SetGlobalConfig(cfg *Config) {
	globalMu.Lock()
	globalConfig = cfg
	globalMu.Unlock()
}

// GetGlobalConfig returns the process-wide configuration, or nil before Load.
func GetGlobalConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}
