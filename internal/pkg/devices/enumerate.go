// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package devices

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/hashicorp/go-envparse"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
)

// ErrDeviceNotFound is returned when no enumerated device matches an identifier.
var ErrDeviceNotFound = errors.New("device not found")

// DefaultIgnore skips virtual block devices which never carry a boot sector of interest.
var DefaultIgnore = regexp.MustCompile(`^loop.*$|^nbd.*$|^ram.*$|^zram.*$`)

// maxDevices is the number of devices addressable by a numeric identifier of one kind.
const maxDevices = PhysicalDiskBit

// EnumeratorOptions configure an Enumerator.
type EnumeratorOptions struct {
	SysfsRoot string
	DevRoot   string
	Ignore    *regexp.Regexp
	Logger    *zap.Logger
}

// EnumeratorOption is the functional option func.
type EnumeratorOption func(*EnumeratorOptions)

// WithSysfsRoot sets the directory listing block devices, /sys/block by default.
func WithSysfsRoot(root string) EnumeratorOption {
	return func(o *EnumeratorOptions) {
		o.SysfsRoot = root
	}
}

// WithDevRoot sets the directory holding device nodes, /dev by default.
func WithDevRoot(root string) EnumeratorOption {
	return func(o *EnumeratorOptions) {
		o.DevRoot = root
	}
}

// WithIgnore replaces DefaultIgnore.
func WithIgnore(re *regexp.Regexp) EnumeratorOption {
	return func(o *EnumeratorOptions) {
		o.Ignore = re
	}
}

// WithEnumeratorLogger sets the logger.
func WithEnumeratorLogger(logger *zap.Logger) EnumeratorOption {
	return func(o *EnumeratorOptions) {
		o.Logger = logger
	}
}

// NewDefaultEnumeratorOptions initializes an EnumeratorOptions struct with default values.
func NewDefaultEnumeratorOptions(setters ...EnumeratorOption) EnumeratorOptions {
	opts := EnumeratorOptions{
		SysfsRoot: "/sys/block",
		DevRoot:   "/dev",
		Ignore:    DefaultIgnore,
		Logger:    zap.NewNop(),
	}

	for _, setter := range setters {
		setter(&opts)
	}

	return opts
}

// Enumerator lists physical disks and logical volumes from sysfs.
type Enumerator struct {
	opts EnumeratorOptions
}

// NewEnumerator initializes an Enumerator.
func NewEnumerator(setters ...EnumeratorOption) *Enumerator {
	return &Enumerator{
		opts: NewDefaultEnumeratorOptions(setters...),
	}
}

// Disks returns the physical disks, numbered from 0x80 in name order.
//
// The sequence is lazy: each device is probed when it is pulled. It can be
// consumed once, ranging over it again yields nothing.
func (e *Enumerator) Disks() iter.Seq2[Device, error] {
	return once(func(yield func(Device, error) bool) {
		names, err := e.diskNames()
		if err != nil {
			yield(Device{}, err)

			return
		}

		for i, name := range names {
			if i >= maxDevices {
				e.opts.Logger.Warn("too many disks, the rest can't be addressed by number", zap.Int("limit", maxDevices))

				return
			}

			if !yield(e.probe(name, "", KindDisk, PhysicalDiskBit|i)) {
				return
			}
		}
	})
}

// Volumes returns the partitions of all disks, numbered from 0 in disk then partition order.
//
// Laziness and single use are the same as for Disks.
func (e *Enumerator) Volumes() iter.Seq2[Device, error] {
	return once(func(yield func(Device, error) bool) {
		disks, err := e.diskNames()
		if err != nil {
			yield(Device{}, err)

			return
		}

		n := 0

		for _, disk := range disks {
			parts, err := e.partitionNames(disk)
			if err != nil {
				if !yield(Device{}, err) {
					return
				}

				continue
			}

			for _, part := range parts {
				if n >= maxDevices {
					e.opts.Logger.Warn("too many volumes, the rest can't be addressed by number", zap.Int("limit", maxDevices))

					return
				}

				if !yield(e.probe(part, disk, KindVolume, n)) {
					return
				}

				n++
			}
		}
	})
}

// Resolve finds the device selected by id.
//
// Path identifiers are returned as is, without consulting sysfs.
func (e *Enumerator) Resolve(id Identifier) (Device, error) {
	if !id.Numeric {
		return Device{
			Name:   filepath.Base(id.Path),
			Path:   id.Path,
			Kind:   KindDisk,
			Number: -1,
		}, nil
	}

	seq := e.Disks()
	if id.Kind() == KindVolume {
		seq = e.Volumes()
	}

	for dev, err := range seq {
		if err != nil {
			e.opts.Logger.Debug("device probe failed", zap.Error(err))

			// nothing to match against
			if dev.Name == "" {
				continue
			}
		}

		if dev.Number == id.Number {
			return dev, nil
		}
	}

	return Device{}, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
}

func (e *Enumerator) diskNames() ([]string, error) {
	entries, err := os.ReadDir(e.opts.SysfsRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", e.opts.SysfsRoot, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if e.opts.Ignore != nil && e.opts.Ignore.MatchString(entry.Name()) {
			continue
		}

		// entries are usually symlinks into /sys/devices
		fi, err := os.Stat(filepath.Join(e.opts.SysfsRoot, entry.Name()))
		if err != nil || !fi.IsDir() {
			continue
		}

		names = append(names, entry.Name())
	}

	// os.ReadDir returns entries sorted by name
	return names, nil
}

func (e *Enumerator) partitionNames(disk string) ([]string, error) {
	path := filepath.Join(e.opts.SysfsRoot, disk)

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}

	var names []string //nolint:prealloc

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if _, err = os.Stat(filepath.Join(path, entry.Name(), "partition")); err != nil {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}

func (e *Enumerator) probe(name, parent string, kind Kind, number int) (Device, error) {
	dev := Device{
		Name:   name,
		Path:   filepath.Join(e.opts.DevRoot, name),
		Parent: parent,
		Kind:   kind,
		Number: number,
	}

	sysPath := filepath.Join(e.opts.SysfsRoot, name)
	if parent != "" {
		sysPath = filepath.Join(e.opts.SysfsRoot, parent, name)
	}

	var result *multierror.Error

	uevent, err := readUevent(filepath.Join(sysPath, "uevent"))
	if err != nil {
		result = multierror.Append(result, err)
	}

	// DEVNAME differs from the sysfs name for some drivers (cciss!c0d0 is cciss/c0d0)
	if devname := uevent["DEVNAME"]; devname != "" {
		dev.Path = filepath.Join(e.opts.DevRoot, devname)
	}

	sectors, err := readUint(filepath.Join(sysPath, "size"))
	if err != nil {
		result = multierror.Append(result, err)
	} else {
		// sysfs always reports the size in 512-byte units
		dev.Size = sectors * lba.SectorSize
	}

	if kind == KindDisk {
		model, err := os.ReadFile(filepath.Join(sysPath, "device", "model"))
		if err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, err)
		}

		dev.Model = strings.TrimSpace(string(model))
	}

	e.opts.Logger.Debug("probed device", zap.String("name", name), zap.Stringer("kind", kind), zap.Uint64("size", dev.Size))

	if err = result.ErrorOrNil(); err != nil {
		return dev, fmt.Errorf("error probing %q: %w", name, err)
	}

	return dev, nil
}

func readUevent(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	defer f.Close() //nolint:errcheck

	values, err := envparse.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	return values, nil
}

func readUint(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	return v, nil
}

// once makes a sequence yield only on its first use.
func once(seq iter.Seq2[Device, error]) iter.Seq2[Device, error] {
	var used atomic.Bool

	return func(yield func(Device, error) bool) {
		if used.Swap(true) {
			return
		}

		seq(yield)
	}
}
