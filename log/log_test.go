package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iselfietest/cardio-sdk/domain/entities"
)

func TestToAttr(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		wantType string
		wantVal  string
	}{
		{
			name:     "string",
			attr:     slog.String("key", "value"),
			wantType: "string",
			wantVal:  "value",
		},
		{
			name:     "int64",
			attr:     slog.Int64("key", 123),
			wantType: "int64",
			wantVal:  "123",
		},
		{
			name:     "bool",
			attr:     slog.Bool("key", true),
			wantType: "bool",
			wantVal:  "true",
		},
		{
			name:     "float64",
			attr:     slog.Float64("key", 1.23),
			wantType: "float64",
			wantVal:  "1.23",
		},
		{
			name:     "time",
			attr:     slog.Time("key", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			wantType: "time",
			wantVal:  "2024-01-01T00:00:00Z",
		},
		{
			name:     "duration",
			attr:     slog.Duration("key", 1*time.Hour),
			wantType: "duration",
			wantVal:  "1h0m0s",
		},
		{
			name:     "error",
			attr:     slog.Any("key", errors.New("test error")),
			wantType: "error",
			wantVal:  "test error",
		},
		{
			name:     "nil",
			attr:     slog.Any("key", nil),
			wantType: "any",
			wantVal:  "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAttr(tt.attr)
			assert.Equal(t, tt.attr.Key, got.Key)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantVal, got.Value)
		})
	}
}

func TestToAttr_JSON(t *testing.T) {
	type payload struct {
		Score int `json:"score"`
	}
	got := toAttr(slog.Any("result", payload{Score: 42}))

	assert.Equal(t, "json", got.Type)
	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(got.Value), &decoded))
	assert.Equal(t, 42, decoded.Score)
}

func newBufferLogger(opts ...HandlerOption) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(NewHandler(append([]HandlerOption{WithWriter(&buf)}, opts...)...)), &buf
}

func TestConsoleHandler_Format(t *testing.T) {
	logger, buf := newBufferLogger()

	logger.Info("Retrying... (1/3)", slog.String("container", "iselfietest"), slog.Int("attempt", 1))

	assert.Equal(t, "[iselfietest] INFO Retrying... (1/3) container=iselfietest attempt=1\n", buf.String())
}

func TestConsoleHandler_LevelFilter(t *testing.T) {
	logger, buf := newBufferLogger()
	logger.Debug("hidden")
	assert.Empty(t, buf.String())

	logger, buf = newBufferLogger(WithLevel(slog.LevelDebug))
	logger.Debug("No iframe to close")
	assert.Contains(t, buf.String(), "DEBUG No iframe to close")
}

func TestConsoleHandler_AttrsAndGroups(t *testing.T) {
	logger, buf := newBufferLogger(WithPrefix(""))

	logger.With(slog.String("op", "embed.Start")).
		WithGroup("session").
		Info("frame mounted", slog.String("id", "abc"), slog.Group("frame", slog.String("src", "https://app")))

	assert.Equal(t, "INFO frame mounted op=embed.Start session.id=abc session.frame.src=https://app\n", buf.String())
}

func TestConsoleHandler_QuotesStrings(t *testing.T) {
	logger, buf := newBufferLogger(WithPrefix(""))

	logger.Warn("cardio test not available", slog.String("reason", "Trial expired"))

	assert.Equal(t, "WARN cardio test not available reason=\"Trial expired\"\n", buf.String())
}

func TestConsoleHandler_RedactsCredentials(t *testing.T) {
	logger, buf := newBufferLogger()

	logger.Info("verifying", slog.Any("creds", entities.NewAPIKeyCredentials("secret-key-9876", "")))

	out := buf.String()
	assert.NotContains(t, out, "secret-key")
	assert.Contains(t, out, "creds.key=****9876")
	assert.Contains(t, out, "creds.method=api_key")
}

func TestConsoleHandler_Source(t *testing.T) {
	logger, buf := newBufferLogger(WithSource(true))

	logger.Error("boom")

	assert.True(t, strings.Contains(buf.String(), "log_test.go:"), buf.String())
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler()
	assert.True(t, h.Enabled(context.TODO(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.TODO(), slog.LevelDebug))
}

func TestInstall(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := Install(WithWriter(&buf))
	slog.Info("hello")

	assert.Same(t, logger, slog.Default())
	assert.Contains(t, buf.String(), "INFO hello")
}
