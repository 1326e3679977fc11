package pipeline

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory classifies pipeline bus errors for telemetry.
type ErrorCategory int

const (
	// ErrCategoryDevice indicates the capture device vanished or could
	// not be read (unplugged card, revoked node). Reconnect will help
	// once the device returns.
	ErrCategoryDevice ErrorCategory = iota
	// ErrCategoryNegotiation indicates caps/format negotiation
	// failures between elements.
	ErrCategoryNegotiation
	// ErrCategoryUnknown indicates unclassified errors.
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the category.
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryNegotiation:
		return "negotiation"
	default:
		return "unknown"
	}
}

// Classify categorizes a GStreamer bus error by message heuristics.
// go-gst's GError does not expose the error domain, so string matching
// is the only portable option.
func Classify(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	return ClassifyMessage(gerr.Error(), gerr.DebugString())
}

// ClassifyMessage categorizes an error by its message and debug text.
// Split out from Classify so it can be exercised without a GStreamer
// runtime.
func ClassifyMessage(errMsg, debugStr string) ErrorCategory {
	combined := strings.ToLower(errMsg + " " + debugStr)

	deviceKeywords := []string{
		"device",
		"no such file",
		"removed",
		"unplugged",
		"disconnected",
		"could not read from resource",
		"resource busy",
		"ioctl",
		"v4l2",
	}
	for _, kw := range deviceKeywords {
		if strings.Contains(combined, kw) {
			return ErrCategoryDevice
		}
	}

	negotiationKeywords := []string{
		"negotiat",
		"caps",
		"format",
		"not-linked",
	}
	for _, kw := range negotiationKeywords {
		if strings.Contains(combined, kw) {
			return ErrCategoryNegotiation
		}
	}

	return ErrCategoryUnknown
}
