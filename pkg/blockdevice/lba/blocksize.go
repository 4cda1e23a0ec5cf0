// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package lba

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// BlockSizes describes the native block sizes of a device.
type BlockSizes struct {
	PhysicalBlockSize uint64
	LogicalBlockSize  uint64
}

// ProbeBlockSizes queries the block sizes of a device, regular files are assumed to use 512 byte blocks.
func ProbeBlockSizes(f *os.File) (*BlockSizes, error) {
	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat disk error: %w", err)
	}

	if st.Mode().IsRegular() {
		return &BlockSizes{
			PhysicalBlockSize: SectorSize,
			LogicalBlockSize:  SectorSize,
		}, nil
	}

	var psize uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKPBSZGET, uintptr(unsafe.Pointer(&psize))); errno != 0 {
		return nil, errors.New("BLKPBSZGET failed")
	}

	var lsize uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKSSZGET, uintptr(unsafe.Pointer(&lsize))); errno != 0 {
		return nil, errors.New("BLKSSZGET failed")
	}

	return &BlockSizes{
		PhysicalBlockSize: psize,
		LogicalBlockSize:  lsize,
	}, nil
}
