package actions

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandler(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		log   func(l *slog.Logger)
		want  string
	}{
		{
			name: "info is a plain line",
			log:  func(l *slog.Logger) { l.Info("Uploading bundle to the cloud...") },
			want: "Uploading bundle to the cloud...\n",
		},
		{
			name: "warning annotation",
			log: func(l *slog.Logger) {
				l.Warn("Move platformatic dependency to devDependencies to speed up deployment")
			},
			want: "::warning::Move platformatic dependency to devDependencies to speed up deployment\n",
		},
		{
			name: "error annotation with attrs",
			log:  func(l *slog.Logger) { l.Error("upload failed", "status", 500) },
			want: "::error::upload failed status=500\n",
		},
		{
			name: "debug suppressed at info",
			log:  func(l *slog.Logger) { l.Debug("hidden") },
			want: "",
		},
		{
			name:  "debug command when enabled",
			level: slog.LevelDebug,
			log:   func(l *slog.Logger) { l.Debug("diff", "body", "-a\n+b") },
			want:  "::debug::diff body=-a%0A+b\n",
		},
		{
			name: "with attrs and groups",
			log: func(l *slog.Logger) {
				l.With("pr", 7).WithGroup("req").Info("sent", "status", 200)
			},
			want: "sent pr=7 req.status=200\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(slog.New(NewHandler(&buf, tt.level)))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" WARN "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewLogger_Local(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo, false).Info("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), "::")
}
