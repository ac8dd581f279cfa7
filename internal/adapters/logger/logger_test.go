package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/recon/internal/adapters/logger"
	"go.trai.ch/recon/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer without ANSI escapes.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg, ok := logger.New().(*logger.Logger)
	require.True(t, ok)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name       string
		log        func(*logger.Logger)
		goldenName string
	}{
		{
			name:       "info",
			log:        func(l *logger.Logger) { l.Info("built /src/b.pyx") },
			goldenName: "info_basic",
		},
		{
			name:       "warn",
			log:        func(l *logger.Logger) { l.Warn("ignoring outdated manifest") },
			goldenName: "warn_basic",
		},
		{
			name:       "multiline info",
			log:        func(l *logger.Logger) { l.Info("/src/a.pxd\n/src/b.pyx") },
			goldenName: "info_multiline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lg, buf := newTestLogger(t)
			tt.log(lg)

			g := goldie.New(t)
			g.Assert(t, tt.goldenName, buf.Bytes())
		})
	}
}

func TestLogger_Error_ZerrChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	inner := zerr.With(zerr.New("native command failed"), "exit_code", 3)
	outer := zerr.With(zerr.Wrap(inner, "failed to build module"), "module", "/src/b.pyx")
	lg.Error(outer)

	g := goldie.New(t)
	g.Assert(t, "error_chain", buf.Bytes())
}

func TestLogger_Error_BuildError(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := &domain.BuildError{
		Module: "/src/b.pyx",
		Cause: &domain.Diagnostic{
			Pos: domain.Position{File: "/src/b.pyx", Line: 2, Col: 3},
			Msg: "cimported module a has no attribute y",
		},
	}
	lg.Error(zerr.Wrap(err, "build failed"))

	g := goldie.New(t)
	g.Assert(t, "error_build", buf.Bytes())
}

func TestLogger_Error_Nil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestLogger_SetJSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Info("hello")
	lg.Error(errors.New("boom"))

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var info map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &info))
	assert.Equal(t, "INFO", info["level"])
	assert.Equal(t, "hello", info["msg"])

	var failed map[string]any
	require.NoError(t, json.Unmarshal(lines[1], &failed))
	assert.Equal(t, "ERROR", failed["level"])
	assert.Equal(t, "boom", failed["error"])

	// Switching back keeps the output destination.
	buf.Reset()
	lg.SetJSON(false)
	lg.Info("pretty")
	assert.Equal(t, "pretty\n", buf.String())
}

func TestLogger_ConcurrentAccess(t *testing.T) {
	lg, _ := newTestLogger(t)
	lg.SetOutput(io.Discard)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			switch i % 5 {
			case 0:
				lg.SetJSON(i%10 == 0)
			case 1:
				lg.SetOutput(io.Discard)
			default:
				lg.Info("message")
				lg.Error(zerr.New("failure"))
			}
		})
	}
	wg.Wait()
}
