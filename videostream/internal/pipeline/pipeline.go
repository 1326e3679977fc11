// Package pipeline builds and tears down the GStreamer capture
// pipeline and adapts its callbacks and bus messages to plain Go
// channels for the session layer.
package pipeline

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Config describes one capture pipeline.
type Config struct {
	// DevicePath is the V4L2 device node or stable by-id symlink.
	DevicePath string
}

// Elements holds references to the pipeline pieces needed for
// lifecycle control and cleanup.
type Elements struct {
	Pipeline *gst.Pipeline
	Source   *gst.Element
	AppSink  *app.Sink
}

// Create builds the capture pipeline:
//
//	v4l2src → videoconvert → capsfilter(RGB) → appsink
//
// The card delivers whatever mode it negotiated with the upstream HDMI
// source; we only force RGB so the display layer gets a predictable
// pixel layout. Width and height are read from each sample's caps, so
// a mode change on the card propagates without a pipeline rebuild.
//
// The pipeline is configured but NOT started (state remains NULL).
func Create(cfg Config) (*Elements, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	src, err := gst.NewElement("v4l2src")
	if err != nil {
		return nil, fmt.Errorf("failed to create v4l2src: %w", err)
	}
	src.SetProperty("device", cfg.DevicePath)
	// do-timestamp keeps buffer timestamps aligned with capture time
	// even when the driver does not stamp them itself.
	src.SetProperty("do-timestamp", true)

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("failed to create videoconvert: %w", err)
	}
	converter.SetProperty("n-threads", 0)

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=RGB"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false)    // real-time, no clock sync
	appsink.SetProperty("max-buffers", 1) // keep only the latest frame
	appsink.SetProperty("drop", true)

	pipeline.AddMany(src, converter, capsfilter, appsink.Element)
	if err := gst.ElementLinkMany(src, converter, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("failed to link pipeline elements: %w", err)
	}

	return &Elements{
		Pipeline: pipeline,
		Source:   src,
		AppSink:  appsink,
	}, nil
}

// Destroy sets the pipeline to NULL, releasing the device handle.
// Safe to call on an already-destroyed pipeline.
func Destroy(elements *Elements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}
	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

// CheckAvailable verifies the GStreamer runtime is usable. Fail-fast
// check run once at startup; if this fails no video pipeline can ever
// be constructed on this host.
func CheckAvailable() error {
	gst.Init(nil)
	elem, err := gst.NewElement("fakesrc")
	if err != nil {
		return fmt.Errorf("GStreamer not available or not properly installed: %w", err)
	}
	elem.SetState(gst.StateNull)
	return nil
}
