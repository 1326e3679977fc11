// Package ui is the fyne presentation layer: a display window that
// shows the supervised video stream, a settings dialog for choosing
// devices, and the keyboard shortcuts (Esc quit, F fullscreen, Alt-S
// settings).
//
// The supervisor slots are consumed strictly through their
// non-blocking interfaces, so a disconnected capture card renders as a
// placeholder with a "reconnecting" indicator instead of stalling the
// event loop.
package ui

import (
	"context"
	"image"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/coolreader18/capturecard-display/config"
	"github.com/coolreader18/capturecard-display/media"
	"github.com/coolreader18/capturecard-display/supervisor"
)

// frameInterval paces the render loop at roughly display rate; the
// slot buffer absorbs the mismatch against the capture rate.
const frameInterval = 16 * time.Millisecond

// Options wires the window to the rest of the application.
type Options struct {
	// Store persists settings changes. Required.
	Store *config.Store
	// Config is the configuration at startup.
	Config config.Config
	// Video is the supervised video slot. Required.
	Video *supervisor.Slot
	// Audio is the supervised audio slot. Optional: nil when the host
	// has no audio backend.
	Audio *supervisor.Slot
	// ListVideoDevices enumerates selectable video devices.
	ListVideoDevices func() ([]media.DeviceIdentity, error)
	// ListAudioDevices enumerates selectable audio devices.
	ListAudioDevices func() ([]media.DeviceIdentity, error)
}

// Window is the main display window.
type Window struct {
	opts Options
	cfg  config.Config

	app    fyne.App
	win    fyne.Window
	view   *canvas.Image
	status *widget.Label

	frame        *image.NRGBA
	settingsOpen bool
}

// New builds the window. Call Run afterwards from the main goroutine.
func New(opts Options) *Window {
	w := &Window{
		opts: opts,
		cfg:  opts.Config,
	}

	w.app = app.New()
	w.win = w.app.NewWindow(w.cfg.WindowTitle)

	w.view = canvas.NewImageFromImage(placeholderImage())
	w.view.FillMode = canvas.ImageFillContain
	w.view.ScaleMode = canvas.ImageScaleFastest

	w.status = widget.NewLabel("")
	w.status.Hide()

	w.win.SetContent(container.NewStack(w.view, container.NewCenter(w.status)))
	w.win.Resize(fyne.NewSize(1280, 720))
	w.win.SetPadded(false)

	w.bindKeys()
	return w
}

// Run shows the window and blocks until the user quits or ctx is
// cancelled. Must be called from the main goroutine (fyne owns it).
func (w *Window) Run(ctx context.Context) {
	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go w.renderLoop(renderCtx)

	go func() {
		<-ctx.Done()
		w.app.Quit()
	}()

	w.win.ShowAndRun()
}

func (w *Window) bindKeys() {
	w.win.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			if w.settingsOpen {
				return // the dialog's own buttons handle it
			}
			w.app.Quit()
		case fyne.KeyF:
			if w.settingsOpen {
				return // user is typing in the form
			}
			w.win.SetFullScreen(!w.win.FullScreen())
		}
	})

	w.win.Canvas().AddShortcut(
		&desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierAlt},
		func(fyne.Shortcut) { w.showSettings() },
	)
}

// renderLoop pulls frames from the video slot and keeps the status
// overlay in sync with the slot states.
func (w *Window) renderLoop(ctx context.Context) {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		// Drain to the newest frame; stale frames only add latency.
		var latest media.Unit
		var have bool
		for {
			unit, ok := w.opts.Video.Poll()
			if !ok {
				break
			}
			latest, have = unit, true
		}
		if have {
			w.frame = rgbToImage(w.frame, latest.Data, latest.Width, latest.Height)
			w.view.Image = w.frame
			w.view.Refresh()
		}

		w.updateStatus()
	}
}

// updateStatus shows a "reconnecting" indicator while either slot is
// not connected, per the supervisor's observable state.
func (w *Window) updateStatus() {
	var parts []string

	if !w.opts.Video.Target().IsZero() && w.opts.Video.State() != media.StateConnected {
		parts = append(parts, "reconnecting video…")
	}
	if w.opts.Audio != nil &&
		!w.opts.Audio.Target().IsZero() && w.opts.Audio.State() != media.StateConnected {
		parts = append(parts, "reconnecting audio…")
	}
	if w.opts.Video.Target().IsZero() {
		parts = append(parts, "no capture device selected (press Alt-S)")
	}

	if len(parts) == 0 {
		if !w.status.Hidden {
			w.status.Hide()
		}
		return
	}

	text := strings.Join(parts, "\n")
	if w.status.Text != text {
		w.status.SetText(text)
	}
	if w.status.Hidden {
		w.status.Show()
	}
}
