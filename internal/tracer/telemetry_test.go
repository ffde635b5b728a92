package tracer

import (
	"context"
	"testing"

	"catalog-admin/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		want    string
		wantNil bool
	}{
		{name: "nothing configured", cfg: config.Config{}, want: "none", wantNil: true},
		{name: "stdout", cfg: config.Config{TraceStdout: true}, want: "stdout"},
		{name: "collector wins over stdout", cfg: config.Config{RemoteTraceRpcURI: "localhost:4317", TraceStdout: true}, want: "otlp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, kind, err := newExporter(context.Background(), &tt.cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.want, kind)
			if tt.wantNil {
				assert.Nil(t, exp)
				return
			}
			require.NotNil(t, exp)
			assert.NoError(t, exp.Shutdown(context.Background()))
		})
	}
}

func TestNewProvider_WithoutExporter(t *testing.T) {
	tp, err := newProvider(context.Background(), &config.Config{AppName: "catalog-admin", Env: "test"})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, tp.Shutdown(context.Background()))
}
