//go:build windows

package midi

import "gitlab.com/gomidi/midi/v2/drivers"

// OpenVirtualOut always fails: the Windows MIDI API has no virtual ports.
func OpenVirtualOut(name string) (drivers.Out, error) {
	return nil, ErrVirtualUnsupported
}
