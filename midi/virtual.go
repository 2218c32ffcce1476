//go:build !windows

package midi

import (
	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// OpenVirtualOut creates a virtual MIDI output port other applications can
// read from.
func OpenVirtualOut(name string) (drivers.Out, error) {
	drv, ok := drivers.Get().(*rtmididrv.Driver)
	if !ok {
		return nil, ErrVirtualUnsupported
	}
	out, err := drv.OpenVirtualOut(name)
	if err != nil {
		return nil, errors.Wrapf(err, "creating virtual MIDI output %q", name)
	}
	return out, nil
}
