package videostream

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coolreader18/capturecard-display/media"
)

func TestDiscoverIn(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"usb-MACROSILICON_USB3_Video_20210621-video-index0",
		"usb-MACROSILICON_USB3_Video_20210621-video-index1", // metadata plane
		"usb-Elgato_Game_Capture-video-index0",
		"usb-Some_Webcam-audio-index0", // not a video node
	} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	devices, err := discoverIn(dir)
	if err != nil {
		t.Fatalf("discoverIn() error: %v", err)
	}
	if len(devices) != 2 {
		t.Fatalf("got %d devices, want 2: %v", len(devices), devices)
	}

	for _, d := range devices {
		if d.Kind != media.KindVideo {
			t.Errorf("device %s has kind %s, want video", d.ID, d.Kind)
		}
	}
	if devices[0].Label != "Elgato Game Capture" {
		t.Errorf("label = %q, want %q", devices[0].Label, "Elgato Game Capture")
	}
	if devices[1].Label != "MACROSILICON USB3 Video 20210621" {
		t.Errorf("label = %q", devices[1].Label)
	}
}

func TestDiscoverIn_MissingDir(t *testing.T) {
	devices, err := discoverIn(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error, got %v", err)
	}
	if devices != nil {
		t.Errorf("got %v, want nil", devices)
	}
}

func TestDeviceLabel(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"usb-MACROSILICON_USB3_Video-video-index0", "MACROSILICON USB3 Video"},
		{"usb-_-video-index0", "usb-_-video-index0"},
		{"plain-video-index0", "plain"},
	}
	for _, tt := range tests {
		if got := deviceLabel(tt.name); got != tt.want {
			t.Errorf("deviceLabel(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
