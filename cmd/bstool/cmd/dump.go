// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/siderolabs/bstool/internal/pkg/devices"
	"github.com/siderolabs/bstool/internal/pkg/output"
	"github.com/siderolabs/bstool/pkg/blockdevice/sector"
	"github.com/siderolabs/bstool/pkg/bootsector"
	"github.com/siderolabs/bstool/pkg/logging"
)

var dumpCmdFlags struct {
	offset  uint64
	hexdump bool
}

// RawDevice is the partition argument selecting the boot sector of the device itself.
//
// Any argument starting with it selects the device, "-1" included.
const RawDevice = "-"

// parseTarget parses the partition argument, numbers are accepted in decimal, hex or octal.
func parseTarget(part string, offset uint64) (bootsector.Target, error) {
	if strings.HasPrefix(part, RawDevice) {
		return bootsector.Target{Raw: true}, nil
	}

	n, err := strconv.ParseInt(part, 0, 32)
	if err != nil {
		return bootsector.Target{}, fmt.Errorf("%w: %q is not a partition number", bootsector.ErrInvalidPartition, part)
	}

	return bootsector.Target{Partition: int(n), Offset: offset}, nil
}

// openDevice resolves the disk argument and opens it for sector reads.
func openDevice(ctx context.Context, env *environment, disk string) (*devices.Handle, *bootsector.Resolver, error) {
	id, err := devices.ParseIdentifier(disk)
	if err != nil {
		return nil, nil, err
	}

	dev, err := env.enumerator.Resolve(id)
	if err != nil {
		return nil, nil, err
	}

	env.logger.Debug("device resolved", zap.String("id", id.String()), zap.String("path", dev.Path))

	h, err := devices.Open(ctx, dev.Path, env.openOptions()...)
	if err != nil {
		return nil, nil, err
	}

	r, err := sector.NewReader(sector.NewFileDevice(h, env.config.LBAGeometry()), env.readerOptions()...)
	if err != nil {
		h.Close() //nolint:errcheck

		return nil, nil, err
	}

	return h, bootsector.NewResolver(r, env.logger.With(logging.Component("resolver"))), nil
}

func dump(ctx context.Context, w io.Writer, env *environment, args []string) error {
	disk, part, filename := args[0], args[1], args[2]

	target, err := parseTarget(part, dumpCmdFlags.offset)
	if err != nil {
		return err
	}

	h, resolver, err := openDevice(ctx, env, disk)
	if err != nil {
		return err
	}

	defer h.Close() //nolint:errcheck

	s, err := resolver.Resolve(target)
	if err != nil {
		env.logger.Debug("resolution failed", zap.Stringer("kind", bootsector.KindOf(err)))

		return fmt.Errorf("error reading %s of %s: %w", target, h.Path, err)
	}

	if dumpCmdFlags.hexdump {
		if err = output.Hexdump(w, s); err != nil {
			return err
		}
	}

	if err = output.WriteSector(filename, s); err != nil {
		return err
	}

	fmt.Fprintln(w, "Done!")

	return nil
}
