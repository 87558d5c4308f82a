package applog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSONStringifiesInt64(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(&buf, Options{Level: "debug", Format: "json"})

	require.NoError(t, err)

	logger.Debug("registered", "account_number", int64(1234567890))

	var line map[string]any

	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "1234567890", line["account_number"])
	require.Equal(t, "bank-cli", line["app"])
}

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(&buf, Options{Level: "warn"})

	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.True(t, strings.Contains(buf.String(), "shown"))
}

func TestNewRejectsUnknownOptions(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	require.Error(t, err)

	_, err = New(&bytes.Buffer{}, Options{Format: "xml"})
	require.Error(t, err)
}

func TestContextLogger(t *testing.T) {
	require.Same(t, slog.Default(), FromContext(context.Background()))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := WithLogger(context.Background(), logger)

	require.Same(t, logger, FromContext(ctx))
}
