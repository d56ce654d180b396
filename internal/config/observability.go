package config

// ObservabilityConfig holds tracing/metrics/logging export toggles.
// Collector endpoint and headers are read directly from the standard
// OTEL_EXPORTER_OTLP_* variables by pkg/observability.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"MONO_OTEL_ENABLED"`
	ServiceName string `env:"MONO_OTEL_SERVICE_NAME"`
}

// WithDefaults fills zero-valued fields with their documented defaults.
func (c ObservabilityConfig) WithDefaults() ObservabilityConfig {
	if c.ServiceName == "" {
		c.ServiceName = "mono-scheduler"
	}
	return c
}
