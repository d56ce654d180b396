package config

import (
	"time"

	"github.com/rezkam/mono/internal/executor"
)

// SchedulerConfig holds the Executor loop timing parameters the core reads
// (§6.5), expressed in seconds/minutes over the wire the way the spec
// names them, converted to the executor.Config shape at wiring time.
type SchedulerConfig struct {
	CheckIntervalSeconds       int  `env:"MONO_SCHED_CHECK_INTERVAL_SEC"`
	ReloadIntervalSeconds      int  `env:"MONO_SCHED_RELOAD_INTERVAL_SEC"`
	ReloadCheckDelaySeconds    int  `env:"MONO_SCHED_RELOAD_CHECK_DELAY_SEC"`
	MaxRunningMinutes          int  `env:"MONO_SCHED_MAX_RUNNING_MINUTES"`
	PostProcessingDelaySeconds int  `env:"MONO_SCHED_POST_PROCESSING_DELAY_SEC"`
	MaxRetries                 int  `env:"MONO_SCHED_MAX_RETRIES"`
	OverdueThresholdHours      int  `env:"MONO_SCHED_OVERDUE_THRESHOLD_HOURS"`
	OverdueThresholdSet        bool `env:"MONO_SCHED_OVERDUE_THRESHOLD_SET"`
}

// WithDefaults fills zero-valued fields with the spec's §4.F defaults.
func (c SchedulerConfig) WithDefaults() SchedulerConfig {
	if c.CheckIntervalSeconds <= 0 {
		c.CheckIntervalSeconds = 10
	}
	if c.ReloadIntervalSeconds <= 0 {
		c.ReloadIntervalSeconds = 30
	}
	if c.ReloadCheckDelaySeconds <= 0 {
		c.ReloadCheckDelaySeconds = 2
	}
	if c.MaxRunningMinutes <= 0 {
		c.MaxRunningMinutes = 30
	}
	if c.PostProcessingDelaySeconds <= 0 {
		c.PostProcessingDelaySeconds = 4
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	return c
}

// OverdueThreshold returns the configured cap as a *time.Duration, or nil
// if the deployment leaves it unset (the spec's overdueThresholdHours=null).
func (c SchedulerConfig) OverdueThreshold() *time.Duration {
	if !c.OverdueThresholdSet {
		return nil
	}
	d := time.Duration(c.OverdueThresholdHours) * time.Hour
	return &d
}

// ToExecutorConfig converts the wire-friendly env shape into the Config the
// Executor loop consumes directly.
func (c SchedulerConfig) ToExecutorConfig() executor.Config {
	c = c.WithDefaults()
	return executor.Config{
		CheckInterval:       time.Duration(c.CheckIntervalSeconds) * time.Second,
		ReloadInterval:      time.Duration(c.ReloadIntervalSeconds) * time.Second,
		ReloadCheckDelay:    time.Duration(c.ReloadCheckDelaySeconds) * time.Second,
		MaxRunningMinutes:   c.MaxRunningMinutes,
		PostProcessingDelay: time.Duration(c.PostProcessingDelaySeconds) * time.Second,
		OverdueThreshold:    c.OverdueThreshold(),
	}
}
