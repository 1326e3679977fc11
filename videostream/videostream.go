package videostream

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/coolreader18/capturecard-display/media"
	"github.com/coolreader18/capturecard-display/videostream/internal/pipeline"
)

const frameBuffer = 8

// CheckAvailable verifies the GStreamer runtime is usable. Intended as
// a one-time startup check; per-device failures during operation are
// handled by the reconnect cycle instead.
func CheckAvailable() error {
	return pipeline.CheckAvailable()
}

// Opener opens video capture sessions. Implements media.Opener.
type Opener struct{}

// NewOpener returns a video session opener.
func NewOpener() *Opener {
	return &Opener{}
}

// Open claims the V4L2 device behind id and starts its pipeline.
// Returns media.ErrDeviceUnavailable (wrapped) when the device node is
// absent or the pipeline cannot reach PLAYING; both mean "retry
// later", not "give up".
func (o *Opener) Open(ctx context.Context, id media.DeviceIdentity) (media.Session, error) {
	if id.Kind != media.KindVideo {
		return nil, fmt.Errorf("videostream: cannot open %s identity", id.Kind)
	}
	if id.IsZero() {
		return nil, fmt.Errorf("videostream: no device selected: %w", media.ErrDeviceUnavailable)
	}

	// Cheap pre-check: a missing node means the card is unplugged, no
	// point in spinning up a pipeline to find that out.
	if _, err := os.Stat(id.ID); err != nil {
		return nil, fmt.Errorf("videostream: %s: %v: %w", id.ID, err, media.ErrDeviceUnavailable)
	}

	elements, err := pipeline.Create(pipeline.Config{DevicePath: id.ID})
	if err != nil {
		return nil, fmt.Errorf("videostream: creating pipeline for %s: %v: %w",
			id.ID, err, media.ErrDeviceUnavailable)
	}

	s := &session{
		device:    id,
		elements:  elements,
		frames:    make(chan pipeline.Frame, frameBuffer),
		busErr:    make(chan error, 1),
		watchDone: make(chan struct{}),
	}

	cbCtx := &pipeline.CallbackContext{
		FrameChan:     s.frames,
		FrameCounter:  &s.frameCount,
		FramesDropped: &s.framesDropped,
	}
	elements.AppSink.SetCallbacks(&app.SinkCallbacks{
		NewSampleFunc: func(sink *app.Sink) gst.FlowReturn {
			return pipeline.OnNewSample(sink, cbCtx)
		},
	})

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		pipeline.Destroy(elements)
		return nil, fmt.Errorf("videostream: starting pipeline for %s: %v: %w",
			id.ID, err, media.ErrDeviceUnavailable)
	}

	// Give the pipeline a moment to surface immediate failures (device
	// claimed elsewhere, unsupported format) so they become open-time
	// errors rather than an instant stream loss.
	if err := s.waitPlaying(5 * time.Second); err != nil {
		pipeline.Destroy(elements)
		return nil, fmt.Errorf("videostream: %s: %v: %w", id.ID, err, media.ErrDeviceUnavailable)
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	s.watchCancel = cancel
	go s.watchBus(watchCtx)

	slog.Info("videostream: session opened", "device", id.ID)
	return s, nil
}

// session is one open capture pipeline. Owned exclusively by the
// supervisor slot that opened it.
type session struct {
	device   media.DeviceIdentity
	elements *pipeline.Elements

	frames chan pipeline.Frame
	busErr chan error

	frameCount    uint64
	framesDropped uint64

	watchCancel context.CancelFunc
	watchDone   chan struct{}
	closeOnce   sync.Once
	closeErr    error
}

// Next returns the next captured frame. Returns media.ErrStreamLost
// (wrapped) once the pipeline bus reports device loss; that is the
// only failure condition surfaced here.
func (s *session) Next(ctx context.Context) (media.Unit, error) {
	select {
	case <-ctx.Done():
		return media.Unit{}, ctx.Err()
	case err := <-s.busErr:
		return media.Unit{}, err
	case frame := <-s.frames:
		return media.Unit{
			Seq:       frame.Seq,
			Timestamp: frame.Timestamp,
			Kind:      media.KindVideo,
			Data:      frame.Data,
			Width:     frame.Width,
			Height:    frame.Height,
			TraceID:   frame.TraceID,
		}, nil
	}
}

// Close releases the device. Idempotent.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		if s.watchCancel != nil {
			s.watchCancel()
			<-s.watchDone
		}
		s.closeErr = pipeline.Destroy(s.elements)
		slog.Info("videostream: session closed",
			"device", s.device.ID,
			"frames", s.frameCount,
			"frames_dropped", s.framesDropped,
		)
	})
	return s.closeErr
}

// waitPlaying blocks until the pipeline reaches PLAYING, errors out,
// or the timeout elapses. Reaching the timeout without an error is
// fine; some drivers take a while to deliver the state change and
// failures still surface through the bus watch later.
func (s *session) waitPlaying(timeout time.Duration) error {
	bus := s.elements.Pipeline.GetPipelineBus()
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		msg := bus.TimedPop(100 * time.Millisecond)
		if msg == nil {
			continue
		}
		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			return fmt.Errorf("pipeline error [%s]: %s",
				pipeline.Classify(gerr), gerr.Error())
		case gst.MessageStateChanged:
			if msg.Source() == s.elements.Pipeline.GetName() {
				_, newState := msg.ParseStateChanged()
				if newState == gst.StatePlaying {
					slog.Debug("videostream: pipeline reached PLAYING state",
						"device", s.device.ID)
					return nil
				}
			}
		}
	}
	return nil
}

// watchBus polls the pipeline bus and converts EOS/error messages into
// the session's terminal error. Exactly one error is delivered.
func (s *session) watchBus(ctx context.Context) {
	defer close(s.watchDone)
	bus := s.elements.Pipeline.GetPipelineBus()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		// Short poll keeps shutdown responsive.
		msg := bus.TimedPop(50 * time.Millisecond)
		if msg == nil {
			continue
		}

		switch msg.Type() {
		case gst.MessageEOS:
			slog.Warn("videostream: end of stream", "device", s.device.ID)
			s.busErr <- fmt.Errorf("videostream: end of stream: %w", media.ErrStreamLost)
			return

		case gst.MessageError:
			gerr := msg.ParseError()
			category := pipeline.Classify(gerr)
			slog.Warn("videostream: pipeline error",
				"device", s.device.ID,
				"category", category.String(),
				"error", gerr.Error(),
				"debug", gerr.DebugString(),
			)
			s.busErr <- fmt.Errorf("videostream: pipeline error [%s]: %s: %w",
				category, gerr.Error(), media.ErrStreamLost)
			return
		}
	}
}
