// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package output writes extracted sectors.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/siderolabs/bstool/pkg/blockdevice/sector"
)

// WriteSector creates or truncates path and writes exactly one sector to it.
//
// On failure the partially written file is removed.
func WriteSector(path string, s *sector.Sector) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}

	defer func() {
		if err != nil {
			f.Close()       //nolint:errcheck
			os.Remove(path) //nolint:errcheck
		}
	}()

	n, err := f.Write(s[:])
	if err != nil {
		return fmt.Errorf("error writing output file: %w", err)
	}

	if n != sector.Size {
		return fmt.Errorf("error writing output file: wrote %d bytes instead of %d", n, sector.Size)
	}

	if err = f.Sync(); err != nil {
		return fmt.Errorf("error syncing output file: %w", err)
	}

	if err = f.Close(); err != nil {
		return fmt.Errorf("error closing output file: %w", err)
	}

	return nil
}

// BytesPerLine is the number of bytes Hexdump prints on each line.
const BytesPerLine = 16

// Hexdump prints the sector as upper-case hex, 16 bytes per line.
func Hexdump(w io.Writer, s *sector.Sector) error {
	var sb strings.Builder

	for i, b := range s {
		if i%BytesPerLine != 0 {
			sb.WriteByte(' ')
		}

		fmt.Fprintf(&sb, "%02X", b)

		if i%BytesPerLine == BytesPerLine-1 {
			sb.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, sb.String())

	return err
}
