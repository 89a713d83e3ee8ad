package core

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorsMatchWithAs(t *testing.T) {
	var err error = fmt.Errorf("generate: %w", &MeshAllocationError{Resource: "vertex buffer", Bytes: 288, Err: ErrOutOfMemory})

	var allocErr *MeshAllocationError
	require.True(t, errors.As(err, &allocErr))
	assert.Equal(t, "vertex buffer", allocErr.Resource)
	assert.ErrorIs(t, err, ErrOutOfMemory)

	err = fmt.Errorf("compile: %w", &ShaderCompileError{Name: "DefaultShader", Stage: "fragment", Log: "0:1(1): error: syntax error\n"})
	var compileErr *ShaderCompileError
	require.True(t, errors.As(err, &compileErr))
	assert.Equal(t, "fragment", compileErr.Stage)
	assert.Contains(t, err.Error(), "fragment stage failed to compile: 0:1(1): error: syntax error")
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		err  bool
	}{
		{"debug", LogLevelDebug, false},
		{" WARN ", LogLevelWarn, false},
		{"", LogLevelInfo, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if tt.err {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMetricsFPS(t *testing.T) {
	m := NewMetrics()
	refreshed := false
	// 100 frames of 10ms each is exactly one second.
	for i := 0; i < 100; i++ {
		refreshed = m.Update(0.010)
	}
	assert.True(t, refreshed)
	assert.Equal(t, float64(100), m.FPS())
	assert.InDelta(t, 10.0, m.FrameTime(), 1e-9)
}

func TestClockNotStarted(t *testing.T) {
	c := NewClock()
	c.Update()
	assert.Zero(t, c.Elapsed())

	c.Start()
	c.Update()
	assert.GreaterOrEqual(t, c.Elapsed(), 0.0)
}

func TestLogCallerIsTheCallSite(t *testing.T) {
	var helpers, structured bytes.Buffer
	l := getLogger()
	l.helpers.SetOutput(&helpers)
	l.structured.SetOutput(&structured)
	t.Cleanup(func() {
		l.helpers.SetOutput(os.Stderr)
		l.structured.SetOutput(os.Stderr)
	})
	SetLogLevel(LogLevelDebug)

	LogInfo("through the helper %d%%", 100)
	Logger().Info("structured", "key", "value")

	assert.Contains(t, helpers.String(), "core_test.go")
	assert.Contains(t, helpers.String(), "through the helper 100%")
	assert.Contains(t, structured.String(), "core_test.go")
	assert.NotContains(t, structured.String(), "testing.go")

	// driver logs and paths are arguments, never the format
	helpers.Reset()
	err := &ShaderLinkError{Name: "grid", Log: "uniform `scale%d' is 100% unused"}
	LogError("%s", err)
	assert.Contains(t, helpers.String(), "uniform `scale%d' is 100% unused")

	// levels apply to both loggers
	SetLogLevel(LogLevelError)
	t.Cleanup(func() { SetLogLevel(LogLevelDebug) })
	helpers.Reset()
	structured.Reset()
	LogInfo("hidden")
	Logger().Info("hidden")
	assert.Empty(t, helpers.String())
	assert.Empty(t, structured.String())
}
