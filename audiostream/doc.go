// Package audiostream relays the capture card's audio input to the
// default output device using miniaudio (via malgo), and exposes the
// relay as a media.Session so the supervisor can watch it for device
// loss.
//
// The relay is a single duplex device: the backend pulls samples from
// the card and we copy them straight into the playback buffer inside
// the data callback, so latency stays at one period. Sample blocks are
// also forwarded as media.Units for observability; playback does not
// depend on anyone consuming them.
package audiostream
