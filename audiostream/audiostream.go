package audiostream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"

	"github.com/coolreader18/capturecard-display/media"
)

// Stream parameters. 48kHz stereo S16 is what HDMI capture cards
// deliver; miniaudio resamples transparently if the output device
// runs at something else.
const (
	sampleRate = 48000
	channels   = 2
	format     = malgo.FormatS16
)

const blockBuffer = 16

// Opener opens audio relay sessions. Implements media.Opener. The
// underlying miniaudio context is shared across sessions; create one
// Opener at startup and Close it at shutdown.
type Opener struct {
	ctx *malgo.AllocatedContext
}

// NewOpener initializes the miniaudio backend. Fails only when no
// audio backend exists on the host at all.
func NewOpener() (*Opener, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
		slog.Debug("audiostream: miniaudio", "message", strings.TrimSpace(message))
	})
	if err != nil {
		return nil, fmt.Errorf("audiostream: initializing miniaudio: %w", err)
	}
	return &Opener{ctx: ctx}, nil
}

// Close releases the miniaudio context. Call after all sessions are
// closed.
func (o *Opener) Close() error {
	if o.ctx == nil {
		return nil
	}
	err := o.ctx.Uninit()
	o.ctx.Free()
	o.ctx = nil
	return err
}

// Devices lists the available capture devices by backend name, for
// the settings dialog and identity resolution.
func (o *Opener) Devices() ([]media.DeviceIdentity, error) {
	infos, err := o.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audiostream: enumerating capture devices: %w", err)
	}

	devices := make([]media.DeviceIdentity, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		devices = append(devices, media.DeviceIdentity{
			Kind:  media.KindAudio,
			ID:    name,
			Label: name,
		})
	}
	return devices, nil
}

// Open claims the capture device named by id and starts the duplex
// relay to the default output. Returns media.ErrDeviceUnavailable
// (wrapped) when no capture device with that name is present.
func (o *Opener) Open(ctx context.Context, id media.DeviceIdentity) (media.Session, error) {
	if id.Kind != media.KindAudio {
		return nil, fmt.Errorf("audiostream: cannot open %s identity", id.Kind)
	}
	if id.IsZero() {
		return nil, fmt.Errorf("audiostream: no device selected: %w", media.ErrDeviceUnavailable)
	}

	infos, err := o.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("audiostream: enumerating capture devices: %v: %w",
			err, media.ErrDeviceUnavailable)
	}

	var devID *malgo.DeviceID
	for i := range infos {
		if infos[i].Name() == id.ID {
			devID = &infos[i].ID
			break
		}
	}
	if devID == nil {
		return nil, fmt.Errorf("audiostream: capture device %q not found: %w",
			id.ID, media.ErrDeviceUnavailable)
	}

	s := &session{
		device: id,
		blocks: make(chan block, blockBuffer),
		lost:   make(chan error, 1),
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Duplex)
	deviceConfig.Capture.Format = format
	deviceConfig.Capture.Channels = channels
	deviceConfig.Capture.DeviceID = devID.Pointer()
	deviceConfig.Playback.Format = format
	deviceConfig.Playback.Channels = channels
	deviceConfig.SampleRate = sampleRate
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: s.onData,
		Stop: s.onStop,
	}

	device, err := malgo.InitDevice(o.ctx.Context, deviceConfig, callbacks)
	if err != nil {
		return nil, fmt.Errorf("audiostream: claiming %q: %v: %w",
			id.ID, err, media.ErrDeviceUnavailable)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		return nil, fmt.Errorf("audiostream: starting %q: %v: %w",
			id.ID, err, media.ErrDeviceUnavailable)
	}

	s.dev = device
	slog.Info("audiostream: session opened",
		"device", id.ID,
		"sample_rate", sampleRate,
		"channels", channels,
	)
	return s, nil
}

type block struct {
	seq         uint64
	timestamp   time.Time
	data        []byte
	sampleCount int
}

// session is one live duplex relay. Owned exclusively by the
// supervisor slot that opened it.
type session struct {
	device media.DeviceIdentity
	dev    *malgo.Device

	blocks chan block
	lost   chan error

	seq       uint64
	dropped   uint64
	closing   atomic.Bool
	lostOnce  sync.Once
	closeOnce sync.Once
}

// onData runs on the miniaudio device thread for every period. The
// input buffer is volatile, so playback gets a direct copy and the
// observability path gets its own clone.
func (s *session) onData(pOutput, pInput []byte, frameCount uint32) {
	if frameCount == 0 {
		return
	}
	copy(pOutput, pInput)

	data := make([]byte, len(pInput))
	copy(data, pInput)

	b := block{
		seq:         atomic.AddUint64(&s.seq, 1),
		timestamp:   time.Now(),
		data:        data,
		sampleCount: int(frameCount),
	}
	select {
	case s.blocks <- b:
	default:
		// Nobody is watching right now; playback already happened.
		atomic.AddUint64(&s.dropped, 1)
	}
}

// onStop fires when the backend stops the device, which includes the
// card being unplugged. A user-initiated Close also stops the device,
// so the closing flag filters that path out.
func (s *session) onStop() {
	if s.closing.Load() {
		return
	}
	s.lostOnce.Do(func() {
		slog.Warn("audiostream: device stopped unexpectedly", "device", s.device.ID)
		s.lost <- fmt.Errorf("audiostream: device %q stopped: %w",
			s.device.ID, media.ErrStreamLost)
	})
}

// Next returns the next relayed sample block. Returns
// media.ErrStreamLost (wrapped) once the device reports loss.
func (s *session) Next(ctx context.Context) (media.Unit, error) {
	select {
	case <-ctx.Done():
		return media.Unit{}, ctx.Err()
	case err := <-s.lost:
		return media.Unit{}, err
	case b := <-s.blocks:
		return media.Unit{
			Seq:         b.seq,
			Timestamp:   b.timestamp,
			Kind:        media.KindAudio,
			Data:        b.data,
			SampleCount: b.sampleCount,
			TraceID:     uuid.New().String(),
		}, nil
	}
}

// Close stops the relay and releases the device. Idempotent.
func (s *session) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		if s.dev != nil {
			s.dev.Uninit()
			s.dev = nil
		}
		slog.Info("audiostream: session closed",
			"device", s.device.ID,
			"blocks", atomic.LoadUint64(&s.seq),
			"blocks_unobserved", atomic.LoadUint64(&s.dropped),
		)
	})
	return nil
}
