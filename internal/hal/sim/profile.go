package sim

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/comcastmike/rdkservices/internal/hal"
)

// Profile describes the hardware a simulated device pretends to be.
type Profile struct {
	Name               string           `toml:"name" yaml:"name"`
	Ports              []hal.Port       `toml:"ports" yaml:"ports"`
	Resolutions        []hal.Resolution `toml:"resolutions" yaml:"resolutions"`
	TvResolutions      []string         `toml:"tv_resolutions" yaml:"tv_resolutions"`
	DefaultResolution  string           `toml:"default_resolution" yaml:"default_resolution"`
	CurrentResolution  string           `toml:"current_resolution" yaml:"current_resolution"`
	Zoom               string           `toml:"zoom" yaml:"zoom"`
	ActiveInput        bool             `toml:"active_input" yaml:"active_input"`
	Connected          []string         `toml:"connected" yaml:"connected"`
	AudioModes         []string         `toml:"audio_modes" yaml:"audio_modes"`
	TvHDRStandards     []string         `toml:"tv_hdr" yaml:"tv_hdr"`
	SettopHDRStandards []string         `toml:"settop_hdr" yaml:"settop_hdr"`
	AtmosCapability    int              `toml:"atmos_capability" yaml:"atmos_capability"`
	EDID               string           `toml:"edid" yaml:"edid"`
	HostEDID           string           `toml:"host_edid" yaml:"host_edid"`
	EventLatencyMs     int              `toml:"event_latency_ms" yaml:"event_latency_ms"`
}

// DefaultProfile is a set-top box with one HDMI output, a component output,
// S/PDIF and a built-in speaker.
func DefaultProfile() Profile {
	return Profile{
		Name: "settop",
		Ports: []hal.Port{
			{ID: 0, Name: "HDMI0", Video: true, Audio: true},
			{ID: 1, Name: "SPDIF0", Audio: true},
			{ID: 2, Name: "COMPONENT0", Video: true},
			{ID: 3, Name: "SPEAKER0", Audio: true},
		},
		Resolutions: []hal.Resolution{
			{Name: "480p", Width: 720, Height: 480},
			{Name: "576p50", Width: 720, Height: 576},
			{Name: "720p", Width: 1280, Height: 720},
			{Name: "1080p60", Width: 1920, Height: 1080},
			{Name: "2160p60", Width: 3840, Height: 2160},
		},
		TvResolutions:      []string{"480p", "720p", "1080p60"},
		DefaultResolution:  "720p",
		CurrentResolution:  "1080p60",
		Zoom:               "FULL",
		ActiveInput:        true,
		Connected:          []string{"HDMI0", "SPDIF0", "SPEAKER0"},
		AudioModes:         []string{"STEREO", "SURROUND", "PASSTHRU", "AUTO"},
		TvHDRStandards:     []string{"HDR10"},
		SettopHDRStandards: []string{"HDR10", "Dolby Vision"},
		AtmosCapability:    1,
		EDID:               "00ffffffffffff004c2d",
		HostEDID:           "00ffffffffffff0010ac",
	}
}

// LoadProfile reads a profile from a TOML or YAML file, chosen by extension.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, errors.Wrapf(err, "failed to read profile %s", path)
	}

	var p Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		return Profile{}, errors.Errorf("unsupported profile format %q (use .toml or .yaml)", filepath.Ext(path))
	}
	if err != nil {
		return Profile{}, errors.Wrapf(err, "failed to parse profile %s", path)
	}
	if err := p.Validate(); err != nil {
		return Profile{}, errors.Wrapf(err, "invalid profile %s", path)
	}
	return p, nil
}

// Validate checks the references between profile fields.
func (p Profile) Validate() error {
	if len(p.Ports) == 0 {
		return errors.New("no ports")
	}
	names := make(map[string]bool, len(p.Ports))
	for _, port := range p.Ports {
		names[port.Name] = true
	}
	for _, c := range p.Connected {
		if !names[c] {
			return errors.Errorf("connected port %s is not defined", c)
		}
	}
	if p.CurrentResolution != "" {
		if _, ok := p.resolution(p.CurrentResolution); !ok {
			return errors.Errorf("current resolution %s is not in resolutions", p.CurrentResolution)
		}
	}
	if p.Zoom != "" {
		if _, ok := hal.ZoomIndex(p.Zoom); !ok {
			return errors.Errorf("unknown zoom setting %s", p.Zoom)
		}
	}
	return nil
}

func (p Profile) resolution(name string) (hal.Resolution, bool) {
	for _, r := range p.Resolutions {
		if r.Name == name {
			return r, true
		}
	}
	return hal.Resolution{}, false
}
