package media

import (
	"errors"
	"fmt"
	"testing"
)

func TestDeviceIdentity_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b DeviceIdentity
		want bool
	}{
		{
			"same kind and id",
			DeviceIdentity{Kind: KindVideo, ID: "/dev/v4l/by-id/usb-cap-0"},
			DeviceIdentity{Kind: KindVideo, ID: "/dev/v4l/by-id/usb-cap-0"},
			true,
		},
		{
			"label does not participate",
			DeviceIdentity{Kind: KindVideo, ID: "cap", Label: "HDMI capture"},
			DeviceIdentity{Kind: KindVideo, ID: "cap", Label: "renamed"},
			true,
		},
		{
			"different id",
			DeviceIdentity{Kind: KindVideo, ID: "cap-0"},
			DeviceIdentity{Kind: KindVideo, ID: "cap-1"},
			false,
		},
		{
			"different kind same id",
			DeviceIdentity{Kind: KindVideo, ID: "cap"},
			DeviceIdentity{Kind: KindAudio, ID: "cap"},
			false,
		},
		{
			"both zero",
			DeviceIdentity{},
			DeviceIdentity{},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeviceIdentity_String(t *testing.T) {
	id := DeviceIdentity{Kind: KindAudio, ID: "USB Capture HDMI Audio"}
	if got := id.String(); got != "audio:USB Capture HDMI Audio" {
		t.Errorf("String() = %q", got)
	}

	var zero DeviceIdentity
	if got := zero.String(); got != "video:<none>" {
		t.Errorf("zero String() = %q", got)
	}
	if !zero.IsZero() {
		t.Error("zero identity should report IsZero")
	}
}

func TestSlotState_String(t *testing.T) {
	tests := []struct {
		state SlotState
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateConnected, "connected"},
		{StateClosing, "closing"},
		{SlotState(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("SlotState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("v4l2 open /dev/video0: %w", ErrDeviceUnavailable)
	if !errors.Is(wrapped, ErrDeviceUnavailable) {
		t.Error("wrapped ErrDeviceUnavailable not detected by errors.Is")
	}

	doubly := fmt.Errorf("pipeline: %w", fmt.Errorf("bus error: %w", ErrStreamLost))
	if !errors.Is(doubly, ErrStreamLost) {
		t.Error("doubly wrapped ErrStreamLost not detected by errors.Is")
	}
}
