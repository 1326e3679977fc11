package videostream

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coolreader18/capturecard-display/media"
)

// byIDDir holds stable per-device symlinks that survive re-plugging,
// unlike the /dev/videoN numbering.
const byIDDir = "/dev/v4l/by-id"

// captureSuffix marks the primary capture node of a device; the other
// index entries are metadata planes.
const captureSuffix = "-video-index0"

// Discover lists the connected V4L2 capture devices by their stable
// by-id paths, for the settings dialog.
func Discover() ([]media.DeviceIdentity, error) {
	return discoverIn(byIDDir)
}

func discoverIn(dir string) ([]media.DeviceIdentity, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		// No V4L2 devices ever plugged in. Not an error.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("videostream: listing %s: %w", dir, err)
	}

	var devices []media.DeviceIdentity
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, captureSuffix) {
			continue
		}
		devices = append(devices, media.DeviceIdentity{
			Kind:  media.KindVideo,
			ID:    filepath.Join(dir, name),
			Label: deviceLabel(name),
		})
	}

	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices, nil
}

// deviceLabel turns a by-id entry name into something readable for the
// settings dialog: "usb-MACROSILICON_USB3_Video-video-index0" becomes
// "MACROSILICON USB3 Video".
func deviceLabel(name string) string {
	label := strings.TrimSuffix(name, captureSuffix)
	label = strings.TrimPrefix(label, "usb-")
	label = strings.ReplaceAll(label, "_", " ")
	label = strings.TrimSpace(label)
	if label == "" {
		return name
	}
	return label
}
