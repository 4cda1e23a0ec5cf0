// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package sector reads single 512-byte sectors from a device.
package sector

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
)

// Size of a sector in bytes.
const Size = lba.SectorSize

// Sector is the raw content of one sector.
type Sector [Size]byte

var (
	// ErrRead wraps every failed sector read.
	ErrRead = errors.New("sector read failed")
	// ErrShortRead is returned when the device returns less than a full sector.
	ErrShortRead = errors.New("short read")
)

// Device reads a single sector by absolute address.
type Device interface {
	ReadSectorLBA(buf []byte, addr lba.Address) error
}

// CHSDevice reads a single sector by cylinder/head/sector.
type CHSDevice interface {
	ReadSectorCHS(buf []byte, chs lba.CHS) error
}

// Reader issues single-sector reads against a device.
type Reader struct {
	dev    Device
	chsDev CHSDevice

	options *Options
}

// NewReader initializes a Reader.
//
// CHS addressing requires the device to implement CHSDevice.
func NewReader(dev Device, setters ...Option) (*Reader, error) {
	opts := NewDefaultOptions(setters...)

	r := &Reader{
		dev:     dev,
		options: opts,
	}

	switch opts.Addressing {
	case AddressingNative:
	case AddressingCHS:
		if err := opts.Geometry.Validate(); err != nil {
			return nil, err
		}

		chsDev, ok := dev.(CHSDevice)
		if !ok {
			return nil, fmt.Errorf("device %T does not support CHS addressing", dev)
		}

		r.chsDev = chsDev
	default:
		return nil, fmt.Errorf("unsupported addressing %s", opts.Addressing)
	}

	return r, nil
}

// Addressing returns the addressing mode in use.
func (r *Reader) Addressing() Addressing {
	return r.options.Addressing
}

// ReadSector reads the sector at addr with exactly one device request.
//
// On failure no data is returned.
func (r *Reader) ReadSector(addr lba.Address) (*Sector, error) {
	var (
		buf Sector
		err error
	)

	switch r.options.Addressing {
	case AddressingCHS:
		var chs lba.CHS

		chs, err = r.options.Geometry.ToCHS(addr)
		if err != nil {
			break
		}

		r.options.Logger.Debug("reading sector", zap.Uint64("lba", uint64(addr)), zap.Stringer("chs", chs))

		err = r.chsDev.ReadSectorCHS(buf[:], chs)
	default:
		r.options.Logger.Debug("reading sector", zap.Uint64("lba", uint64(addr)))

		err = r.dev.ReadSectorLBA(buf[:], addr)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: sector %d: %w", ErrRead, addr, err)
	}

	return &buf, nil
}
