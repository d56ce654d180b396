package executor

import "time"

// Config holds the Executor's loop timing parameters (§4.F). DefaultConfig
// returns the defaults; WithDefaults fills in unset fields from them.
type Config struct {
	CheckInterval        time.Duration
	ReloadInterval        time.Duration
	ReloadCheckDelay      time.Duration
	MaxRunningMinutes     int
	PostProcessingDelay   time.Duration
	// OverdueThreshold caps how far past scheduledTime a job may still be
	// dispatched; nil means no cap (the spec's overdueThresholdHours=null).
	OverdueThreshold *time.Duration
}

// DefaultConfig returns the spec's defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval:       10 * time.Second,
		ReloadInterval:      30 * time.Second,
		ReloadCheckDelay:    2 * time.Second,
		MaxRunningMinutes:   30,
		PostProcessingDelay: 4 * time.Second,
		OverdueThreshold:    nil,
	}
}

// WithDefaults fills any zero-valued field of cfg with the spec default,
// leaving explicitly-set fields untouched.
func (cfg Config) WithDefaults() Config {
	d := DefaultConfig()
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = d.CheckInterval
	}
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = d.ReloadInterval
	}
	if cfg.ReloadCheckDelay <= 0 {
		cfg.ReloadCheckDelay = d.ReloadCheckDelay
	}
	if cfg.MaxRunningMinutes <= 0 {
		cfg.MaxRunningMinutes = d.MaxRunningMinutes
	}
	if cfg.PostProcessingDelay <= 0 {
		cfg.PostProcessingDelay = d.PostProcessingDelay
	}
	return cfg
}
