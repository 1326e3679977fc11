package media

import (
	"context"
	"errors"
	"time"
)

// StreamKind distinguishes the two supervised pipelines.
type StreamKind int

const (
	// KindVideo is the capture card's video stream.
	KindVideo StreamKind = iota
	// KindAudio is the capture card's audio stream.
	KindAudio
)

// String returns a human-readable string representation of the kind.
func (k StreamKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// DeviceIdentity is a stable logical identifier for a physical device,
// distinct from whatever low-level handle the driver hands out for it.
//
// Two identities compare equal iff they refer to the same physical
// peripheral across reconnects. For video devices ID is a stable device
// path (e.g. /dev/v4l/by-id/...); for audio devices it is the backend's
// device name. The zero value means "no device selected".
type DeviceIdentity struct {
	// Kind is the stream kind this identity selects a device for.
	Kind StreamKind
	// ID is the stable identifier (device path or backend name).
	ID string
	// Label is an optional human-readable name for UI display.
	// Label does not participate in equality.
	Label string
}

// IsZero reports whether no device is selected.
func (d DeviceIdentity) IsZero() bool {
	return d.ID == ""
}

// Equal reports whether two identities refer to the same peripheral.
func (d DeviceIdentity) Equal(other DeviceIdentity) bool {
	return d.Kind == other.Kind && d.ID == other.ID
}

// String returns "kind:id" for logging.
func (d DeviceIdentity) String() string {
	if d.IsZero() {
		return d.Kind.String() + ":<none>"
	}
	return d.Kind.String() + ":" + d.ID
}

// Unit is one unit of media data pulled from a Session: a video frame
// or a block of audio samples.
type Unit struct {
	// Seq is the monotonic sequence number within the producing session.
	Seq uint64
	// Timestamp is when the unit was captured.
	Timestamp time.Time
	// Kind identifies the payload interpretation.
	Kind StreamKind
	// Data is the raw payload (RGB pixels or interleaved PCM samples).
	Data []byte

	// Width and Height are set for video units only.
	Width  int
	Height int

	// SampleCount is the number of PCM frames for audio units only.
	SampleCount int

	// TraceID is a unique identifier for tracing a unit through the
	// pipeline.
	TraceID string
}

// Session represents one open device stream.
//
// Implementations must guarantee:
//   - Next() returns ErrStreamLost (possibly wrapped) once the
//     underlying device reports disconnection; that is the sole failure
//     condition the supervisor reacts to.
//   - Close() is idempotent and releases the device handle.
//   - Ownership is exclusive: a Session is driven by a single goroutine.
type Session interface {
	// Next blocks until the next unit is available, the context is
	// cancelled, or the stream is lost.
	Next(ctx context.Context) (Unit, error)

	// Close releases the underlying device handle. Safe to call
	// multiple times and safe to call after Next returned an error.
	Close() error
}

// Opener acquires a Session for a device identity.
type Opener interface {
	// Open attempts to claim the device. Fails with ErrDeviceUnavailable
	// (possibly wrapped) if the device does not exist or cannot be
	// claimed.
	Open(ctx context.Context, id DeviceIdentity) (Session, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, id DeviceIdentity) (Session, error)

// Open implements Opener.
func (f OpenerFunc) Open(ctx context.Context, id DeviceIdentity) (Session, error) {
	return f(ctx, id)
}

var (
	// ErrDeviceUnavailable is returned by Opener.Open when the device
	// does not exist or is claimed elsewhere. Recoverable via retry.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrStreamLost is returned by Session.Next when the underlying
	// handle reports disconnection. Recoverable via reconnect.
	ErrStreamLost = errors.New("stream lost")
)
