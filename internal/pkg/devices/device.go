// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package devices

// Kind is either a physical disk or a logical volume.
type Kind int

// Device kinds.
const (
	KindDisk Kind = iota
	KindVolume
)

func (k Kind) String() string {
	switch k {
	case KindDisk:
		return "disk"
	case KindVolume:
		return "volume"
	default:
		return "unknown"
	}
}

// Device describes an enumerated device.
type Device struct {
	Name   string
	Path   string
	Parent string
	Model  string

	Kind   Kind
	Number int

	// Size in bytes, zero if unknown.
	Size uint64
}

// ID returns the identifier which selects the device.
func (d Device) ID() Identifier {
	if d.Number < 0 {
		return Identifier{Path: d.Path}
	}

	return Identifier{Number: d.Number, Numeric: true}
}
