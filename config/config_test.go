package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coolreader18/capturecard-display/media"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	return store
}

func TestStore_Load_MissingFileReturnsDefaults(t *testing.T) {
	store := tempStore(t)

	cfg, err := store.Load()
	require.NoError(t, err, "first launch must not error")
	require.Equal(t, Default(), cfg)
	require.Equal(t, "CCDisplay", cfg.WindowTitle)
}

func TestStore_SaveLoad_RoundTrip(t *testing.T) {
	store := tempStore(t)

	want := Config{
		WindowTitle: "Living room capture",
		VideoDevice: "/dev/v4l/by-id/usb-MACROSILICON-video-index0",
		AudioDevice: "USB Capture HDMI Audio",
		Reconnect: Reconnect{
			InitialDelay: Duration(250 * time.Millisecond),
			MaxDelay:     Duration(3 * time.Second),
		},
	}
	require.NoError(t, store.Save(want))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestStore_Load_MalformedFile(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("{not yaml::"), 0o644))

	cfg, err := store.Load()
	require.ErrorIs(t, err, ErrInvalidConfig)
	require.Equal(t, Default(), cfg, "malformed file still yields usable defaults")
}

func TestStore_Save_OverwritesAtomically(t *testing.T) {
	store := tempStore(t)

	require.NoError(t, store.Save(Config{WindowTitle: "first"}))
	require.NoError(t, store.Save(Config{WindowTitle: "second"}))

	cfg, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "second", cfg.WindowTitle)

	// No temp file debris left next to the config.
	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestDuration_YAMLForm(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, store.Save(Config{
		WindowTitle: "t",
		Reconnect:   Reconnect{InitialDelay: Duration(500 * time.Millisecond)},
	}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	require.Contains(t, string(data), "500ms", "durations must be human-readable in the file")
}

func TestConfig_Identities(t *testing.T) {
	cfg := Config{VideoDevice: "/dev/video0", AudioDevice: "hdmi-audio"}

	v := cfg.VideoIdentity()
	require.Equal(t, media.KindVideo, v.Kind)
	require.Equal(t, "/dev/video0", v.ID)

	a := cfg.AudioIdentity()
	require.Equal(t, media.KindAudio, a.Kind)
	require.False(t, a.IsZero())

	require.True(t, Config{}.VideoIdentity().IsZero())
}

func TestErrInvalidConfig_Wrapping(t *testing.T) {
	store := tempStore(t)
	require.NoError(t, os.WriteFile(store.Path(), []byte("\twindow_title: x"), 0o644))

	_, err := store.Load()
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidConfig))
}
