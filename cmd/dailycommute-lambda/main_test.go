package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cpuguy83/dailycommute/internal/commute"
	"github.com/cpuguy83/dailycommute/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv(EnvConfig, path)
}

func stubPublish(t *testing.T, fn func(context.Context, *config.Config, commute.Options) (*commute.Result, error)) {
	t.Helper()
	orig := publish
	publish = fn
	t.Cleanup(func() { publish = orig })
}

func TestHandler(t *testing.T) {
	writeConfig(t, "timezone: Europe/Paris\nweather:\n  lat: 48.85\n  lon: 2.35\n")

	var gotOpts commute.Options
	stubPublish(t, func(_ context.Context, cfg *config.Config, opts commute.Options) (*commute.Result, error) {
		assert.Equal(t, "Europe/Paris", cfg.Timezone)
		gotOpts = opts
		return &commute.Result{Events: 3, Uploaded: true}, nil
	})

	resp, err := handler(context.Background(), Event{NoUpload: true})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 3, resp.Events)
	assert.True(t, resp.Uploaded)
	assert.True(t, gotOpts.NoUpload)
}

func TestHandler_Errors(t *testing.T) {
	t.Run("missing config", func(t *testing.T) {
		t.Setenv(EnvConfig, filepath.Join(t.TempDir(), "missing.yaml"))
		resp, err := handler(context.Background(), Event{})
		assert.Error(t, err)
		assert.Equal(t, 500, resp.StatusCode)
	})

	t.Run("invalid config", func(t *testing.T) {
		writeConfig(t, "timezone: Mars/Olympus\n")
		resp, err := handler(context.Background(), Event{})
		assert.Error(t, err)
		assert.Equal(t, "config error", resp.Message)
	})

	t.Run("edition failed", func(t *testing.T) {
		writeConfig(t, "timezone: UTC\n")
		stubPublish(t, func(context.Context, *config.Config, commute.Options) (*commute.Result, error) {
			return nil, errors.New("weather: status 503")
		})
		resp, err := handler(context.Background(), Event{})
		assert.ErrorContains(t, err, "status 503")
		assert.Equal(t, "edition failed", resp.Message)
	})
}
