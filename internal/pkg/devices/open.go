// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package devices

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/siderolabs/go-blockdevice/v2/block"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
)

// ErrUnsupportedDevice is returned by Open for paths which are neither block devices nor regular files.
var ErrUnsupportedDevice = errors.New("not a block device or a regular file")

// DefaultLockTimeout is the default time to wait for the device lock.
const DefaultLockTimeout = 30 * time.Second

// OpenOptions configure Open.
type OpenOptions struct {
	Logger      *zap.Logger
	Lock        bool
	LockTimeout time.Duration
}

// OpenOption is the functional option func.
type OpenOption func(*OpenOptions)

// WithLock enables or disables the exclusive device lock.
func WithLock(enabled bool) OpenOption {
	return func(o *OpenOptions) {
		o.Lock = enabled
	}
}

// WithLockTimeout sets the maximum time to wait for the device lock.
func WithLockTimeout(timeout time.Duration) OpenOption {
	return func(o *OpenOptions) {
		o.LockTimeout = timeout
	}
}

// WithOpenLogger sets the logger.
func WithOpenLogger(logger *zap.Logger) OpenOption {
	return func(o *OpenOptions) {
		o.Logger = logger
	}
}

// NewDefaultOpenOptions initializes an OpenOptions struct with default values.
func NewDefaultOpenOptions(setters ...OpenOption) OpenOptions {
	opts := OpenOptions{
		Logger:      zap.NewNop(),
		Lock:        true,
		LockTimeout: DefaultLockTimeout,
	}

	for _, setter := range setters {
		setter(&opts)
	}

	return opts
}

// Handle is an open, optionally locked, device.
type Handle struct {
	dev    *block.Device
	locked bool

	Path       string
	BlockSizes *lba.BlockSizes
}

// Open opens the device read-only and takes an exclusive lock on it.
//
// The lock serializes access between bstool processes and other tools honoring
// block device locks, waiting for it can be cancelled through ctx.
func Open(ctx context.Context, path string, setters ...OpenOption) (*Handle, error) {
	opts := NewDefaultOpenOptions(setters...)

	dev, err := block.NewFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("error opening %q: %w", path, err)
	}

	h := &Handle{
		dev:  dev,
		Path: path,
	}

	if err = h.init(ctx, opts); err != nil {
		dev.Close() //nolint:errcheck

		return nil, err
	}

	return h, nil
}

func (h *Handle) init(ctx context.Context, opts OpenOptions) error {
	var st unix.Stat_t

	if err := unix.Fstat(int(h.dev.File().Fd()), &st); err != nil {
		return fmt.Errorf("error stating %q: %w", h.Path, err)
	}

	switch st.Mode & unix.S_IFMT {
	case unix.S_IFBLK, unix.S_IFREG:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDevice, h.Path)
	}

	if opts.Lock {
		opts.Logger.Debug("waiting for device lock", zap.String("path", h.Path), zap.Duration("timeout", opts.LockTimeout))

		if err := h.dev.RetryLockWithTimeout(ctx, true, opts.LockTimeout); err != nil {
			return fmt.Errorf("error locking %q: %w", h.Path, err)
		}

		h.locked = true
	}

	sizes, err := lba.ProbeBlockSizes(h.dev.File())
	if err != nil {
		opts.Logger.Debug("failed to probe block sizes", zap.String("path", h.Path), zap.Error(err))

		return nil
	}

	h.BlockSizes = sizes

	if sizes.LogicalBlockSize != lba.SectorSize {
		opts.Logger.Warn("device logical block size is not 512 bytes, sector numbers are still in 512-byte units",
			zap.String("path", h.Path),
			zap.Uint64("logical_block_size", sizes.LogicalBlockSize),
		)
	}

	opts.Logger.Debug("device opened",
		zap.String("path", h.Path),
		zap.Bool("locked", h.locked),
		zap.Uint64("logical_block_size", sizes.LogicalBlockSize),
		zap.Uint64("physical_block_size", sizes.PhysicalBlockSize),
	)

	return nil
}

// File returns the underlying file.
func (h *Handle) File() *os.File {
	return h.dev.File()
}

// ReadAt implements io.ReaderAt.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	return h.dev.File().ReadAt(p, off)
}

// Close releases the lock and closes the device.
func (h *Handle) Close() error {
	if h.locked {
		if err := h.dev.Unlock(); err != nil {
			h.dev.Close() //nolint:errcheck

			return fmt.Errorf("error unlocking %q: %w", h.Path, err)
		}

		h.locked = false
	}

	return h.dev.Close()
}
