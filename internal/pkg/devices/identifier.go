// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package devices

import (
	"errors"
	"fmt"
	"strconv"
)

// PhysicalDiskBit marks numeric identifiers which address physical disks.
const PhysicalDiskBit = 0x80

// ErrEmptyIdentifier is returned by ParseIdentifier for an empty string.
var ErrEmptyIdentifier = errors.New("empty device identifier")

// Identifier selects a device either by number or by path.
type Identifier struct {
	// Path is set when the identifier is not numeric.
	Path string

	Number  int
	Numeric bool
}

// ParseIdentifier accepts decimal, hex (0x) or octal (leading 0) numbers, anything else is a path.
//
// Numbers with PhysicalDiskBit set select a physical disk, lower numbers select a logical volume.
func ParseIdentifier(s string) (Identifier, error) {
	if s == "" {
		return Identifier{}, ErrEmptyIdentifier
	}

	n, err := strconv.ParseInt(s, 0, 32)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return Identifier{}, fmt.Errorf("device number %q is out of range", s)
		}

		return Identifier{Path: s}, nil
	}

	if n < 0 || n > 0xFF {
		return Identifier{}, fmt.Errorf("device number %#x is out of range", n)
	}

	return Identifier{Number: int(n), Numeric: true}, nil
}

// Kind returns the kind of device a numeric identifier addresses.
func (id Identifier) Kind() Kind {
	if id.Numeric && id.Number&PhysicalDiskBit == 0 {
		return KindVolume
	}

	return KindDisk
}

// Index of the device among the enumerated devices of its kind.
func (id Identifier) Index() int {
	return id.Number &^ PhysicalDiskBit
}

func (id Identifier) String() string {
	if !id.Numeric {
		return id.Path
	}

	return FormatNumber(id.Number)
}

// FormatNumber renders a device number the way BIOS drive numbers are usually written (80h).
func FormatNumber(n int) string {
	return fmt.Sprintf("%02Xh", n)
}
