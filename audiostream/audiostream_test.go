package audiostream

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coolreader18/capturecard-display/media"
)

func newTestSession() *session {
	return &session{
		device: media.DeviceIdentity{Kind: media.KindAudio, ID: "test-card"},
		blocks: make(chan block, blockBuffer),
		lost:   make(chan error, 1),
	}
}

func TestSession_OnData_RelaysToOutputAndForwardsBlock(t *testing.T) {
	s := newTestSession()

	input := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	output := make([]byte, len(input))
	s.onData(output, input, 2)

	require.Equal(t, input, output, "playback buffer must receive the capture data")

	unit, err := s.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, media.KindAudio, unit.Kind)
	require.Equal(t, input, unit.Data)
	require.Equal(t, 2, unit.SampleCount)
	require.Equal(t, uint64(1), unit.Seq)
	require.NotEmpty(t, unit.TraceID)
}

func TestSession_OnData_CopiesOutOfVolatileBuffer(t *testing.T) {
	s := newTestSession()

	input := []byte{9, 9, 9, 9}
	s.onData(make([]byte, 4), input, 1)
	input[0] = 0 // backend reuses its buffer

	unit, err := s.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, byte(9), unit.Data[0], "forwarded block must not alias the callback buffer")
}

func TestSession_OnData_DropsWhenUnobserved(t *testing.T) {
	s := newTestSession()

	for i := 0; i < blockBuffer+5; i++ {
		s.onData(make([]byte, 4), []byte{1, 2, 3, 4}, 1)
	}

	require.Equal(t, uint64(5), s.dropped, "overflow blocks are dropped, never block the device thread")
}

func TestSession_OnStop_SignalsStreamLost(t *testing.T) {
	s := newTestSession()

	s.onStop()
	s.onStop() // loss is reported exactly once

	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, media.ErrStreamLost)
}

func TestSession_OnStop_DuringCloseIsNotALoss(t *testing.T) {
	s := newTestSession()

	require.NoError(t, s.Close())
	s.onStop() // backend stop callback fired by Uninit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Next(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded,
		"a user-initiated close must not look like a device loss")
}

func TestSession_Close_Idempotent(t *testing.T) {
	s := newTestSession()
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}

func TestSession_Next_HonorsContext(t *testing.T) {
	s := newTestSession()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
