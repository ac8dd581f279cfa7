package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/recon/internal/adapters/logger"
)

func TestPrettyHandler(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name string
		log  func(*slog.Logger)
		want string
	}{
		{
			name: "debug filtered",
			log:  func(l *slog.Logger) { l.Debug("hidden") },
			want: "",
		},
		{
			name: "error icon",
			log:  func(l *slog.Logger) { l.Error("failed") },
			want: "✗ failed\n",
		},
		{
			name: "record attrs",
			log:  func(l *slog.Logger) { l.Info("built", "key", "abcd") },
			want: "built key=abcd\n",
		},
		{
			name: "handler attrs and group",
			log: func(l *slog.Logger) {
				l.With("module", "b.pyx").WithGroup("cache").Warn("miss", "variant", "unit")
			},
			want: "! miss cache.module=b.pyx cache.variant=unit\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.log(slog.New(logger.NewPrettyHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}
