package settings

import (
	"github.com/pkg/errors"
	"github.com/vishalkuo/bimap"

	"github.com/comcastmike/rdkservices/internal/hal"
)

// DefaultPort is used when a request names no port.
const DefaultPort = "HDMI0"

// PortTable maps port ids to names and back, and remembers each port's roles.
type PortTable struct {
	ids   *bimap.BiMap[int, string]
	ports []hal.Port
}

// NewPortTable builds a table, rejecting duplicate ids or names.
func NewPortTable(ports []hal.Port) (*PortTable, error) {
	t := &PortTable{
		ids: bimap.NewBiMap[int, string](),
	}
	for _, p := range ports {
		if p.Name == "" {
			return nil, errors.Errorf("port %d has no name", p.ID)
		}
		if p.ID < 0 || p.ID > 30 {
			return nil, errors.Errorf("port %s: id %d outside 0..30", p.Name, p.ID)
		}
		if _, dup := t.ids.Get(p.ID); dup {
			return nil, errors.Errorf("duplicate port id %d", p.ID)
		}
		if _, dup := t.ids.GetInverse(p.Name); dup {
			return nil, errors.Errorf("duplicate port name %s", p.Name)
		}
		t.ids.Insert(p.ID, p.Name)
		t.ports = append(t.ports, p)
	}
	return t, nil
}

// HasPort reports whether id is a known port.
func (t *PortTable) HasPort(id int) bool {
	_, ok := t.ids.Get(id)
	return ok
}

// PortByID returns the port with the given id.
func (t *PortTable) PortByID(id int) (hal.Port, bool) {
	name, ok := t.ids.Get(id)
	if !ok {
		return hal.Port{}, false
	}
	return t.PortByName(name)
}

// PortByName returns the port with the given name.
func (t *PortTable) PortByName(name string) (hal.Port, bool) {
	if _, ok := t.ids.GetInverse(name); !ok {
		return hal.Port{}, false
	}
	for _, p := range t.ports {
		if p.Name == name {
			return p, true
		}
	}
	return hal.Port{}, false
}

// Ports returns all ports in table order.
func (t *PortTable) Ports() []hal.Port {
	out := make([]hal.Port, len(t.ports))
	copy(out, t.ports)
	return out
}

// VideoPorts returns the names of video-capable ports.
func (t *PortTable) VideoPorts() []string {
	var out []string
	for _, p := range t.ports {
		if p.Video {
			out = append(out, p.Name)
		}
	}
	return out
}

// AudioPorts returns the names of audio-capable ports.
func (t *PortTable) AudioPorts() []string {
	var out []string
	for _, p := range t.ports {
		if p.Audio {
			out = append(out, p.Name)
		}
	}
	return out
}

// CheckPortName resolves a requested port name. An empty name means
// DefaultPort.
func (t *PortTable) CheckPortName(name string) (hal.Port, error) {
	if name == "" {
		name = DefaultPort
	}
	p, ok := t.PortByName(name)
	if !ok {
		return hal.Port{}, errors.Wrapf(ErrUnknownPort, "%q", name)
	}
	return p, nil
}

func (t *PortTable) videoPort(name string) (hal.Port, error) {
	p, err := t.CheckPortName(name)
	if err != nil {
		return p, err
	}
	if !p.Video {
		return p, invalidParam("%s is not a video port", p.Name)
	}
	return p, nil
}

func (t *PortTable) audioPort(name string) (hal.Port, error) {
	p, err := t.CheckPortName(name)
	if err != nil {
		return p, err
	}
	if !p.Audio {
		return p, invalidParam("%s is not an audio port", p.Name)
	}
	return p, nil
}
