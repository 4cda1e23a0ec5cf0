// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sector

import (
	"errors"
	"fmt"
	"io"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
)

// FileDevice reads sectors from a block device or a disk image.
//
// It implements both Device and CHSDevice, CHS requests are mapped back to
// absolute offsets with the configured geometry.
type FileDevice struct {
	r        io.ReaderAt
	geometry lba.Geometry
}

// NewFileDevice wraps r, geometry is only used for CHS requests.
func NewFileDevice(r io.ReaderAt, geometry lba.Geometry) *FileDevice {
	return &FileDevice{
		r:        r,
		geometry: geometry,
	}
}

// ReadSectorLBA implements Device.
func (d *FileDevice) ReadSectorLBA(buf []byte, addr lba.Address) error {
	if len(buf) != Size {
		return fmt.Errorf("buffer is %d bytes instead of expected %d", len(buf), Size)
	}

	off, err := addr.Offset()
	if err != nil {
		return err
	}

	return readAtFull(d.r, off, buf)
}

// ReadSectorCHS implements CHSDevice.
func (d *FileDevice) ReadSectorCHS(buf []byte, chs lba.CHS) error {
	addr, err := d.geometry.ToLBA(chs)
	if err != nil {
		return err
	}

	return d.ReadSectorLBA(buf, addr)
}

func readAtFull(r io.ReaderAt, off int64, buf []byte) error {
	remaining := len(buf)

	for remaining > 0 {
		n, err := r.ReadAt(buf, off)

		remaining -= n
		off += int64(n)
		buf = buf[n:]

		if err != nil {
			if errors.Is(err, io.EOF) && remaining > 0 {
				return fmt.Errorf("%w: %d bytes missing", ErrShortRead, remaining)
			}

			if remaining > 0 {
				return err
			}
		}

		if n == 0 && err == nil {
			return fmt.Errorf("%w: %d bytes missing", ErrShortRead, remaining)
		}
	}

	return nil
}
