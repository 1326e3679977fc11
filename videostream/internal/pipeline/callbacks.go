package pipeline

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Frame is the raw decoded frame handed up to the session layer.
type Frame struct {
	Seq       uint64
	Timestamp time.Time
	Width     int
	Height    int
	Data      []byte
	TraceID   string
}

// CallbackContext holds the state shared with the appsink callback.
type CallbackContext struct {
	FrameChan     chan<- Frame
	FrameCounter  *uint64 // atomic sequence numbers
	FramesDropped *uint64 // atomic drop counter (channel full)
}

// OnNewSample is invoked by GStreamer for every frame reaching the
// appsink. It copies the pixel data out of the GStreamer buffer (the
// buffer is reused), reads the frame geometry from the sample caps,
// and forwards the frame without blocking; a slow consumer drops
// frames rather than stalling the pipeline.
func OnNewSample(sink *app.Sink, ctx *CallbackContext) gst.FlowReturn {
	sample := sink.PullSample()
	if sample == nil {
		// A single bad sample should not kill the stream.
		slog.Warn("videostream: failed to pull sample from appsink, skipping frame")
		return gst.FlowOK
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		slog.Warn("videostream: failed to get buffer from sample, skipping frame")
		return gst.FlowOK
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		slog.Warn("videostream: empty buffer received")
		return gst.FlowOK
	}

	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	width, height := sampleDimensions(sample)

	seq := atomic.AddUint64(ctx.FrameCounter, 1)
	frame := Frame{
		Seq:       seq,
		Timestamp: time.Now(),
		Width:     width,
		Height:    height,
		Data:      frameData,
		TraceID:   uuid.New().String(),
	}

	select {
	case ctx.FrameChan <- frame:
	default:
		atomic.AddUint64(ctx.FramesDropped, 1)
		slog.Debug("videostream: dropping frame, channel full", "seq", seq)
	}

	return gst.FlowOK
}

// sampleDimensions reads width/height from the sample caps. The caps
// are negotiated per-mode, so this tracks resolution changes on the
// capture card.
func sampleDimensions(sample *gst.Sample) (width, height int) {
	caps := sample.GetCaps()
	if caps == nil {
		return 0, 0
	}
	structure := caps.GetStructureAt(0)
	if structure == nil {
		return 0, 0
	}
	if v, err := structure.GetValue("width"); err == nil {
		if w, ok := v.(int); ok {
			width = w
		}
	}
	if v, err := structure.GetValue("height"); err == nil {
		if h, ok := v.(int); ok {
			height = h
		}
	}
	return width, height
}
