// Package media defines the shared vocabulary of the capture pipeline:
// device identities, media units, the Session/Opener contracts, and the
// error taxonomy the supervisor reacts to.
//
// A Session represents one successfully-opened device stream (video or
// audio) and produces Units until the device is lost. An Opener knows
// how to acquire a Session for a DeviceIdentity. Both sides of the
// supervisor speak only these types, so the reconnect core never needs
// to know whether it is babysitting a GStreamer pipeline or a miniaudio
// device.
package media
