package midi

import (
	"strings"

	"github.com/pkg/errors"
	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrVirtualUnsupported is returned by OpenVirtualOut on platforms without
// virtual MIDI port support.
var ErrVirtualUnsupported = errors.New("virtual MIDI output ports are not supported on this platform")

// MatchPort picks the port matching want from a list of port names: an exact
// match wins, otherwise the first case-insensitive substring match.
func MatchPort(names []string, want string) (int, bool) {
	for i, name := range names {
		if name == want {
			return i, true
		}
	}
	lower := strings.ToLower(want)
	for i, name := range names {
		if strings.Contains(strings.ToLower(name), lower) {
			return i, true
		}
	}
	return -1, false
}

// OpenIn finds the input port matching name and returns it along with its
// full port name.
func OpenIn(name string) (drivers.In, string, error) {
	ports := gomidi.GetInPorts()
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.String()
	}
	i, ok := MatchPort(names, name)
	if !ok {
		return nil, "", errors.Errorf("no MIDI input port matching %q", name)
	}
	return ports[i], names[i], nil
}

// InPortPresent reports whether an input port with the exact name is still
// attached.
func InPortPresent(name string) bool {
	for _, p := range gomidi.GetInPorts() {
		if p.String() == name {
			return true
		}
	}
	return false
}

// ListPorts returns the names of all MIDI input and output ports.
func ListPorts() (ins, outs []string) {
	for _, p := range gomidi.GetInPorts() {
		ins = append(ins, p.String())
	}
	for _, p := range gomidi.GetOutPorts() {
		outs = append(outs, p.String())
	}
	return ins, outs
}
