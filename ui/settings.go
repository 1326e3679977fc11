package ui

import (
	"fmt"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/coolreader18/capturecard-display/media"
	"github.com/coolreader18/capturecard-display/supervisor"
)

// deviceChooser is a Select over discovered devices plus the mapping
// from the displayed option back to the identity it stands for.
type deviceChooser struct {
	sel     *widget.Select
	options map[string]media.DeviceIdentity
}

func newDeviceChooser(list func() ([]media.DeviceIdentity, error), current media.DeviceIdentity) *deviceChooser {
	c := &deviceChooser{options: make(map[string]media.DeviceIdentity)}

	var devices []media.DeviceIdentity
	if list != nil {
		var err error
		devices, err = list()
		if err != nil {
			slog.Warn("ui: device enumeration failed", "error", err)
		}
	}

	names := make([]string, 0, len(devices)+1)
	names = append(names, "(none)")
	c.options["(none)"] = media.DeviceIdentity{Kind: current.Kind}

	selected := "(none)"
	for _, d := range devices {
		name := d.Label
		if name == "" {
			name = d.ID
		}
		// Two cards of the same model enumerate with the same label;
		// keep the options unambiguous.
		if _, taken := c.options[name]; taken {
			name = fmt.Sprintf("%s (%s)", name, d.ID)
		}
		c.options[name] = d
		names = append(names, name)
		if d.Equal(current) {
			selected = name
		}
	}

	// The configured device may be unplugged right now; still show it
	// so saving unrelated settings does not silently drop it.
	if selected == "(none)" && !current.IsZero() {
		name := current.ID
		c.options[name] = current
		names = append(names, name)
		selected = name
	}

	c.sel = widget.NewSelect(names, nil)
	c.sel.SetSelected(selected)
	return c
}

// chosen returns the identity for the current selection.
func (c *deviceChooser) chosen() media.DeviceIdentity {
	return c.options[c.sel.Selected]
}

// showSettings opens the settings dialog (Alt-S). Saving persists the
// config and retargets both supervisor slots; the supervisor makes a
// same-identity retarget a no-op, so hitting Save without touching the
// device fields never interrupts the stream.
func (w *Window) showSettings() {
	if w.settingsOpen {
		return
	}

	titleEntry := widget.NewEntry()
	titleEntry.SetText(w.cfg.WindowTitle)

	videoChooser := newDeviceChooser(w.opts.ListVideoDevices, w.opts.Video.Target())

	var audioChooser *deviceChooser
	items := []*widget.FormItem{
		widget.NewFormItem("Window title", titleEntry),
		widget.NewFormItem("Video device", videoChooser.sel),
	}
	if w.opts.Audio != nil {
		audioChooser = newDeviceChooser(w.opts.ListAudioDevices, w.opts.Audio.Target())
		items = append(items, widget.NewFormItem("Audio device", audioChooser.sel))
	}

	form := widget.NewForm(items...)

	d := dialog.NewCustomConfirm("Settings", "Save", "Cancel", form, func(save bool) {
		w.settingsOpen = false
		if !save {
			return
		}
		w.applySettings(titleEntry.Text, videoChooser, audioChooser)
	}, w.win)

	w.settingsOpen = true
	d.Resize(fyne.NewSize(440, 0))
	d.Show()
}

func (w *Window) applySettings(title string, videoChooser, audioChooser *deviceChooser) {
	if title == "" {
		title = "CCDisplay"
	}
	w.cfg.WindowTitle = title
	w.win.SetTitle(title)

	videoID := videoChooser.chosen()
	w.cfg.VideoDevice = videoID.ID
	retarget(w.opts.Video, videoID)

	if audioChooser != nil {
		audioID := audioChooser.chosen()
		w.cfg.AudioDevice = audioID.ID
		retarget(w.opts.Audio, audioID)
	}

	if err := w.opts.Store.Save(w.cfg); err != nil {
		slog.Error("ui: saving config failed", "error", err)
		dialog.ShowError(err, w.win)
		return
	}
	slog.Info("ui: settings saved",
		"window_title", w.cfg.WindowTitle,
		"video_device", w.cfg.VideoDevice,
		"audio_device", w.cfg.AudioDevice,
	)
}

// retarget applies a device change off the UI thread: SetTarget blocks
// until the slot's run loop picks the command up, which can be a few
// seconds if an open attempt is mid-flight.
func retarget(slot *supervisor.Slot, id media.DeviceIdentity) {
	go slot.SetTarget(id)
}
