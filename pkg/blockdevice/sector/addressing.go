// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sector

import (
	"fmt"
	"strings"
)

// Addressing selects how a sector address is passed to the device.
type Addressing int

// Addressing modes.
const (
	// AddressingNative passes absolute LBA to the device.
	AddressingNative Addressing = iota
	// AddressingCHS translates LBA to cylinder/head/sector first.
	AddressingCHS
)

func (a Addressing) String() string {
	switch a {
	case AddressingNative:
		return "native"
	case AddressingCHS:
		return "chs"
	default:
		return fmt.Sprintf("Addressing(%d)", int(a))
	}
}

// ParseAddressing parses the textual addressing mode.
func ParseAddressing(s string) (Addressing, error) {
	switch strings.ToLower(s) {
	case "native", "lba":
		return AddressingNative, nil
	case "chs":
		return AddressingCHS, nil
	default:
		return 0, fmt.Errorf("unknown addressing mode %q (valid values are native and chs)", s)
	}
}

// Set implements pflag.Value.
func (a *Addressing) Set(s string) error {
	parsed, err := ParseAddressing(s)
	if err != nil {
		return err
	}

	*a = parsed

	return nil
}

// Type implements pflag.Value.
func (a *Addressing) Type() string {
	return "addressing"
}

// MarshalText implements encoding.TextMarshaler.
func (a Addressing) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Addressing) UnmarshalText(text []byte) error {
	return a.Set(string(text))
}
