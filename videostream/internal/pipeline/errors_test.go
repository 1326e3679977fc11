package pipeline

import "testing"

func TestClassifyMessage(t *testing.T) {
	tests := []struct {
		name   string
		errMsg string
		debug  string
		want   ErrorCategory
	}{
		{
			"device unplugged",
			"Could not read from resource.",
			"v4l2src.c: poll error: No such device",
			ErrCategoryDevice,
		},
		{
			"device busy",
			"Device '/dev/video0' is busy",
			"resource busy",
			ErrCategoryDevice,
		},
		{
			"ioctl failure",
			"Failed to allocate required memory.",
			"ioctl VIDIOC_REQBUFS failed",
			ErrCategoryDevice,
		},
		{
			"caps negotiation",
			"Internal data stream error.",
			"streaming stopped, reason not-negotiated",
			ErrCategoryNegotiation,
		},
		{
			"unclassified",
			"something went sideways",
			"",
			ErrCategoryUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyMessage(tt.errMsg, tt.debug); got != tt.want {
				t.Errorf("ClassifyMessage() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorCategory_String(t *testing.T) {
	tests := []struct {
		cat  ErrorCategory
		want string
	}{
		{ErrCategoryDevice, "device"},
		{ErrCategoryNegotiation, "negotiation"},
		{ErrCategoryUnknown, "unknown"},
		{ErrorCategory(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.cat.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
