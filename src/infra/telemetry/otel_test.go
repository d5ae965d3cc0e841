package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"pulljoker/src/infra/config"
	"pulljoker/src/infra/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{"disabled", config.TelemetryConfig{Enabled: false, Endpoint: "http://192.0.2.1:4318"}},
		{"enabled without endpoint", config.TelemetryConfig{Enabled: true}},
		// Non-routable address: nothing is exported, shutdown still returns.
		{"enabled", config.TelemetryConfig{Enabled: true, Endpoint: "http://192.0.2.1:4318", ServiceName: "test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), tt.cfg, logger.Discard())
			require.NoError(t, err)
			require.NoError(t, shutdown(context.Background()))
		})
	}
}
