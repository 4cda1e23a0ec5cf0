// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package lba provides a library for working with Logical Block Addresses.
package lba

import (
	"errors"
	"fmt"
	"math"
)

// SectorSize is the size of the sector addressed by an Address.
const SectorSize = 512

// ErrAddressOutOfRange is returned when an address can't be expressed in the target addressing scheme.
var ErrAddressOutOfRange = errors.New("address out of range")

// Address is a zero-based index of a 512-byte sector on a device.
type Address uint64

// Offset returns the byte offset of the sector on the device.
func (a Address) Offset() (int64, error) {
	if uint64(a) > math.MaxInt64/SectorSize {
		return 0, fmt.Errorf("%w: sector %d has no byte offset", ErrAddressOutOfRange, a)
	}

	return int64(a) * SectorSize, nil
}

// Add returns a+n, failing on overflow.
func (a Address) Add(n uint64) (Address, error) {
	if uint64(a) > math.MaxUint64-n {
		return 0, fmt.Errorf("%w: %d + %d overflows", ErrAddressOutOfRange, a, n)
	}

	return a + Address(n), nil
}

// CHS is a cylinder/head/sector address, Sector is 1-based.
type CHS struct {
	Cylinder uint32
	Head     uint32
	Sector   uint32
}

func (chs CHS) String() string {
	return fmt.Sprintf("%d/%d/%d", chs.Cylinder, chs.Head, chs.Sector)
}

// Geometry is the disk layout used to translate between LBA and CHS.
type Geometry struct {
	HeadsPerCylinder uint32
	SectorsPerTrack  uint32
	Cylinders        uint32
}

// DefaultGeometry is the fixed legacy geometry: 64 heads, 63 sectors per track
// and a 10-bit cylinder number.
var DefaultGeometry = Geometry{
	HeadsPerCylinder: 64,
	SectorsPerTrack:  63,
	Cylinders:        1024,
}

// Validate checks that the geometry can be used for translation.
func (g Geometry) Validate() error {
	switch {
	case g.HeadsPerCylinder == 0 || g.HeadsPerCylinder > 256:
		return fmt.Errorf("invalid heads per cylinder %d", g.HeadsPerCylinder)
	case g.SectorsPerTrack == 0 || g.SectorsPerTrack > 63:
		return fmt.Errorf("invalid sectors per track %d", g.SectorsPerTrack)
	case g.Cylinders == 0:
		return fmt.Errorf("invalid cylinder count %d", g.Cylinders)
	}

	return nil
}

func (g Geometry) sectorsPerCylinder() uint64 {
	return uint64(g.HeadsPerCylinder) * uint64(g.SectorsPerTrack)
}

// Capacity returns the number of sectors addressable with the geometry.
func (g Geometry) Capacity() uint64 {
	return uint64(g.Cylinders) * g.sectorsPerCylinder()
}

// ToCHS translates the address into cylinder/head/sector.
func (g Geometry) ToCHS(addr Address) (CHS, error) {
	if err := g.Validate(); err != nil {
		return CHS{}, err
	}

	lba := uint64(addr)
	spt := uint64(g.SectorsPerTrack)

	cylinder := lba / g.sectorsPerCylinder()
	if cylinder >= uint64(g.Cylinders) {
		return CHS{}, fmt.Errorf("%w: sector %d is beyond cylinder %d", ErrAddressOutOfRange, addr, g.Cylinders-1)
	}

	return CHS{
		Cylinder: uint32(cylinder),
		Head:     uint32((lba / spt) % uint64(g.HeadsPerCylinder)),
		Sector:   uint32(lba%spt) + 1,
	}, nil
}

// ToLBA translates cylinder/head/sector back into an address.
//
// LBA = (C × HPC + H) × SPT + (S - 1).
func (g Geometry) ToLBA(chs CHS) (Address, error) {
	if err := g.Validate(); err != nil {
		return 0, err
	}

	switch {
	case chs.Sector < 1 || chs.Sector > g.SectorsPerTrack:
		return 0, fmt.Errorf("%w: sector %d not in [1, %d]", ErrAddressOutOfRange, chs.Sector, g.SectorsPerTrack)
	case chs.Head >= g.HeadsPerCylinder:
		return 0, fmt.Errorf("%w: head %d not in [0, %d)", ErrAddressOutOfRange, chs.Head, g.HeadsPerCylinder)
	case chs.Cylinder >= g.Cylinders:
		return 0, fmt.Errorf("%w: cylinder %d not in [0, %d)", ErrAddressOutOfRange, chs.Cylinder, g.Cylinders)
	}

	return Address(uint64(chs.Cylinder)*g.sectorsPerCylinder() + uint64(chs.Head)*uint64(g.SectorsPerTrack) + uint64(chs.Sector-1)), nil
}
