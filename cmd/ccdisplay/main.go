// Command ccdisplay shows a capture card's video in a window and
// relays its audio to the default output, reconnecting automatically
// when the card is unplugged and replugged.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coolreader18/capturecard-display/audiostream"
	"github.com/coolreader18/capturecard-display/config"
	"github.com/coolreader18/capturecard-display/media"
	"github.com/coolreader18/capturecard-display/supervisor"
	"github.com/coolreader18/capturecard-display/ui"
	"github.com/coolreader18/capturecard-display/videostream"
)

const version = "v0.1.0"

func main() {
	windowTitle := flag.String("window-title", "", "Window title (overrides config)")
	videoDevice := flag.String("video-device", "", "Video device path, e.g. /dev/v4l/by-id/... (overrides config)")
	audioDevice := flag.String("audio-device", "", "Audio capture device name (overrides config)")
	configPath := flag.String("config", "", "Config file path (default: user config dir)")
	listDevices := flag.Bool("list-devices", false, "List capture devices and exit")
	debug := flag.Bool("debug", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ccdisplay %s\n", version)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	store, err := config.NewStore(*configPath)
	if err != nil {
		slog.Error("resolving config path", "error", err)
		os.Exit(1)
	}
	cfg, err := store.Load()
	if err != nil {
		// A broken config file should not brick the app; run on
		// defaults and let the next settings save repair the file.
		slog.Warn("config unusable, continuing with defaults",
			"path", store.Path(),
			"error", err,
		)
	}
	if *windowTitle != "" {
		cfg.WindowTitle = *windowTitle
	}
	if *videoDevice != "" {
		cfg.VideoDevice = *videoDevice
	}
	if *audioDevice != "" {
		cfg.AudioDevice = *audioDevice
	}

	// Probe the two capture backends. Either may be absent; only both
	// missing makes the process pointless.
	videoErr := videostream.CheckAvailable()
	audioOpener, audioErr := audiostream.NewOpener()
	if videoErr != nil && audioErr != nil {
		slog.Error("no capture backend available",
			"video_error", videoErr,
			"audio_error", audioErr,
		)
		os.Exit(1)
	}
	if videoErr != nil {
		slog.Error("video capture unavailable, running audio-only", "error", videoErr)
		cfg.VideoDevice = ""
	}
	if audioErr != nil {
		slog.Error("audio relay unavailable, running video-only", "error", audioErr)
		cfg.AudioDevice = ""
	}

	if *listDevices {
		printDevices(audioOpener)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	retry := retryPolicy(cfg.Reconnect)

	videoSlot, err := supervisor.NewSlot(supervisor.SlotConfig{
		Kind:   media.KindVideo,
		Target: cfg.VideoIdentity(),
		Opener: videostream.NewOpener(),
		Retry:  retry,
	})
	if err != nil {
		slog.Error("creating video slot", "error", err)
		os.Exit(1)
	}

	var audioSlot *supervisor.Slot
	if audioErr == nil {
		audioSlot, err = supervisor.NewSlot(supervisor.SlotConfig{
			Kind:   media.KindAudio,
			Target: cfg.AudioIdentity(),
			Opener: audioOpener,
			Retry:  retry,
		})
		if err != nil {
			slog.Error("creating audio slot", "error", err)
			os.Exit(1)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		videoSlot.Run(ctx)
	}()
	if audioSlot != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			audioSlot.Run(ctx)
		}()
		// Audio playback happens inside the session; its units only
		// carry liveness info, so drain them to keep the counters
		// honest.
		go func() {
			for range audioSlot.Units() {
			}
		}()
	}

	window := ui.New(ui.Options{
		Store:            store,
		Config:           cfg,
		Video:            videoSlot,
		Audio:            audioSlot,
		ListVideoDevices: videostream.Discover,
		ListAudioDevices: listAudio(audioOpener),
	})

	slog.Info("ccdisplay started",
		"version", version,
		"video_device", cfg.VideoDevice,
		"audio_device", cfg.AudioDevice,
		"config", store.Path(),
	)

	window.Run(ctx)

	// Window closed or signal received: stop the slots and make sure
	// every device handle is released before the process exits.
	stop()
	wg.Wait()
	if audioOpener != nil {
		if err := audioOpener.Close(); err != nil {
			slog.Warn("closing audio backend", "error", err)
		}
	}
	slog.Info("ccdisplay stopped")
}

// retryPolicy maps the config file's reconnect tuning onto the
// supervisor policy, keeping defaults for anything unset.
func retryPolicy(rc config.Reconnect) supervisor.RetryPolicy {
	policy := supervisor.DefaultRetryPolicy()
	if rc.InitialDelay > 0 {
		policy.InitialDelay = time.Duration(rc.InitialDelay)
	}
	if rc.MaxDelay > 0 {
		policy.MaxDelay = time.Duration(rc.MaxDelay)
	}
	return policy
}

func listAudio(opener *audiostream.Opener) func() ([]media.DeviceIdentity, error) {
	if opener == nil {
		return nil
	}
	return opener.Devices
}

func printDevices(audioOpener *audiostream.Opener) {
	videoDevices, err := videostream.Discover()
	if err != nil {
		slog.Warn("listing video devices", "error", err)
	}
	fmt.Println("Video devices:")
	if len(videoDevices) == 0 {
		fmt.Println("  (none)")
	}
	for _, d := range videoDevices {
		fmt.Printf("  %s\n      %s\n", d.Label, d.ID)
	}

	fmt.Println("Audio capture devices:")
	if audioOpener == nil {
		fmt.Println("  (audio backend unavailable)")
		return
	}
	audioDevices, err := audioOpener.Devices()
	if err != nil {
		slog.Warn("listing audio devices", "error", err)
	}
	if len(audioDevices) == 0 {
		fmt.Println("  (none)")
	}
	for _, d := range audioDevices {
		fmt.Printf("  %s\n", d.ID)
	}
}
