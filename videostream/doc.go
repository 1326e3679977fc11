// Package videostream acquires video from a V4L2 capture card through
// GStreamer and exposes it as a media.Session.
//
// Open claims the device and starts a v4l2src pipeline delivering RGB
// frames; Next surfaces them as media.Units. When the card is
// unplugged the pipeline bus reports an error, which Next translates
// into media.ErrStreamLost, the signal the supervisor reconnects on.
//
// Requires the gstreamer1.0 runtime with the video4linux2 plugin.
package videostream
