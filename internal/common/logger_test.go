package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(orig) })

	LogError(errors.New("disk detached"), "failed to close storage", Fields{"path": "/tmp/tally.db", "attempt": 2})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "failed to close storage", entry["msg"])
	assert.Equal(t, "disk detached", entry["error"])
	assert.Equal(t, "/tmp/tally.db", entry["path"])
	assert.InDelta(t, 2, entry["attempt"], 0)
}

func TestNewLoggerFormats(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		want    string
		wantErr bool
	}{
		{name: "json", format: "json", want: `"msg":"ready"`},
		{name: "console", format: "console", want: "msg=ready"},
		{name: "default", format: "", want: "msg=ready"},
		{name: "unknown", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := NewLogger(&buf, slog.LevelInfo, tt.format)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			logger.Info("ready")
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
