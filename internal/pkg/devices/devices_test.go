// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package devices_test

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/siderolabs/bstool/internal/pkg/devices"
)

func TestParseIdentifier(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		in string

		expected devices.Identifier
		kind     devices.Kind
		index    int
		str      string
	}{
		{in: "0x80", expected: devices.Identifier{Number: 0x80, Numeric: true}, kind: devices.KindDisk, index: 0, str: "80h"},
		{in: "129", expected: devices.Identifier{Number: 0x81, Numeric: true}, kind: devices.KindDisk, index: 1, str: "81h"},
		{in: "0200", expected: devices.Identifier{Number: 0x80, Numeric: true}, kind: devices.KindDisk, index: 0, str: "80h"},
		{in: "2", expected: devices.Identifier{Number: 2, Numeric: true}, kind: devices.KindVolume, index: 2, str: "02h"},
		{in: "0", expected: devices.Identifier{Number: 0, Numeric: true}, kind: devices.KindVolume, index: 0, str: "00h"},
		{in: "/dev/sda", expected: devices.Identifier{Path: "/dev/sda"}, kind: devices.KindDisk, str: "/dev/sda"},
		{in: "disk.img", expected: devices.Identifier{Path: "disk.img"}, kind: devices.KindDisk, str: "disk.img"},
	} {
		t.Run(test.in, func(t *testing.T) {
			t.Parallel()

			id, err := devices.ParseIdentifier(test.in)
			require.NoError(t, err)

			assert.Equal(t, test.expected, id)
			assert.Equal(t, test.kind, id.Kind())
			assert.Equal(t, test.str, id.String())

			if id.Numeric {
				assert.Equal(t, test.index, id.Index())
			}
		})
	}

	for _, in := range []string{"", "0x100", "-1", "99999999999999"} {
		_, err := devices.ParseIdentifier(in)
		assert.Error(t, err, in)
	}
}

// sysfs builds a fake /sys/block tree.
func sysfs(t *testing.T) string {
	t.Helper()

	root := t.TempDir()

	write := func(path, contents string) {
		path = filepath.Join(root, path)

		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}

	write("sda/size", "2048\n")
	write("sda/device/model", "QEMU HARDDISK   \n")
	write("sda/sda1/partition", "1\n")
	write("sda/sda1/size", "1024\n")
	write("sda/sda2/partition", "2\n")
	write("sda/sda2/size", "512\n")
	write("sda/queue/rotational", "1\n")
	write("sdb/size", "4096\n")
	write("sdb/sdb1/partition", "1\n")
	write("sdb/sdb1/size", "4000\n")
	write("loop0/size", "8\n")
	write("zram0/size", "8\n")

	return root
}

func TestEnumeratorDisks(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(
		devices.WithSysfsRoot(sysfs(t)),
		devices.WithDevRoot("/dev"),
		devices.WithEnumeratorLogger(zaptest.NewLogger(t)),
	)

	var disks []devices.Device

	for dev, err := range e.Disks() {
		require.NoError(t, err)

		disks = append(disks, dev)
	}

	assert.Equal(t, []devices.Device{
		{
			Name:   "sda",
			Path:   "/dev/sda",
			Model:  "QEMU HARDDISK",
			Kind:   devices.KindDisk,
			Number: 0x80,
			Size:   2048 * 512,
		},
		{
			Name:   "sdb",
			Path:   "/dev/sdb",
			Kind:   devices.KindDisk,
			Number: 0x81,
			Size:   4096 * 512,
		},
	}, disks)
}

func TestEnumeratorVolumes(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(devices.WithSysfsRoot(sysfs(t)), devices.WithDevRoot("/dev"))

	var names []string

	for dev, err := range e.Volumes() {
		require.NoError(t, err)

		assert.Equal(t, devices.KindVolume, dev.Kind)
		assert.Equal(t, len(names), dev.Number)

		names = append(names, dev.Parent+"/"+dev.Name)
	}

	assert.Equal(t, []string{"sda/sda1", "sda/sda2", "sdb/sdb1"}, names)
}

func TestEnumeratorSingleUse(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(devices.WithSysfsRoot(sysfs(t)))

	seq := e.Disks()

	count := 0

	for range seq {
		count++
	}

	assert.Equal(t, 2, count)

	for range seq {
		t.Fatal("sequence yielded twice")
	}

	// a fresh sequence starts over
	count = 0

	for range e.Disks() {
		count++
	}

	assert.Equal(t, 2, count)
}

func TestEnumeratorLazy(t *testing.T) {
	t.Parallel()

	root := sysfs(t)
	e := devices.NewEnumerator(devices.WithSysfsRoot(root))

	var sizes []uint64

	for dev, err := range e.Disks() {
		require.NoError(t, err)

		sizes = append(sizes, dev.Size)

		// sdb is probed only once it is pulled
		require.NoError(t, os.WriteFile(filepath.Join(root, "sdb", "size"), []byte("8\n"), 0o644))
	}

	assert.Equal(t, []uint64{2048 * 512, 8 * 512}, sizes)
}

func TestEnumeratorEarlyStop(t *testing.T) {
	t.Parallel()

	root := sysfs(t)

	// sdb would fail to probe if it was ever touched
	require.NoError(t, os.WriteFile(filepath.Join(root, "sdb", "size"), []byte("garbage"), 0o644))

	e := devices.NewEnumerator(devices.WithSysfsRoot(root))

	for dev, err := range e.Disks() {
		require.NoError(t, err)
		assert.Equal(t, "sda", dev.Name)

		break
	}

	dev, err := e.Resolve(devices.Identifier{Number: 0x80, Numeric: true})
	require.NoError(t, err)
	assert.Equal(t, "sda", dev.Name)
}

func TestEnumeratorProbeError(t *testing.T) {
	t.Parallel()

	root := sysfs(t)
	require.NoError(t, os.Remove(filepath.Join(root, "sdb", "size")))

	e := devices.NewEnumerator(devices.WithSysfsRoot(root))

	var errs int

	for dev, err := range e.Disks() {
		if err != nil {
			errs++

			assert.Equal(t, "sdb", dev.Name)
			assert.Zero(t, dev.Size)
		}
	}

	assert.Equal(t, 1, errs)

	// partially probed devices can still be resolved
	dev, err := e.Resolve(devices.Identifier{Number: 0x81, Numeric: true})
	require.NoError(t, err)
	assert.Equal(t, "/dev/sdb", dev.Path)
}

func TestEnumeratorMissingRoot(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(devices.WithSysfsRoot(filepath.Join(t.TempDir(), "missing")))

	for _, err := range e.Disks() {
		require.Error(t, err)
	}

	_, err := e.Resolve(devices.Identifier{Number: 0x80, Numeric: true})
	require.ErrorIs(t, err, devices.ErrDeviceNotFound)
}

func TestEnumeratorResolve(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(devices.WithSysfsRoot(sysfs(t)), devices.WithDevRoot("/dev"))

	for _, test := range []struct {
		id   string
		path string
	}{
		{"0x80", "/dev/sda"},
		{"0x81", "/dev/sdb"},
		{"0", "/dev/sda1"},
		{"2", "/dev/sdb1"},
		{"./disk.img", "./disk.img"},
	} {
		id, err := devices.ParseIdentifier(test.id)
		require.NoError(t, err)

		dev, err := e.Resolve(id)
		require.NoError(t, err)
		assert.Equal(t, test.path, dev.Path)
	}

	for _, id := range []string{"0x82", "3", "127"} {
		parsed, err := devices.ParseIdentifier(id)
		require.NoError(t, err)

		_, err = e.Resolve(parsed)
		require.ErrorIs(t, err, devices.ErrDeviceNotFound)
	}
}

func image(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, make([]byte, 4*512), 0o644))

	return path
}

func TestOpen(t *testing.T) {
	t.Parallel()

	path := image(t)

	h, err := devices.Open(t.Context(), path, devices.WithOpenLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	require.NotNil(t, h.BlockSizes)
	assert.EqualValues(t, 512, h.BlockSizes.LogicalBlockSize)

	buf := make([]byte, 512)
	n, err := h.ReadAt(buf, 512)
	require.NoError(t, err)
	assert.Equal(t, 512, n)

	require.NoError(t, h.Close())
}

func TestOpenExclusive(t *testing.T) {
	t.Parallel()

	path := image(t)

	h, err := devices.Open(t.Context(), path)
	require.NoError(t, err)

	_, err = devices.Open(t.Context(), path, devices.WithLockTimeout(100*time.Millisecond))
	require.Error(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err = devices.Open(ctx, path)
	require.Error(t, err)

	// lock disabled
	unlocked, err := devices.Open(t.Context(), path, devices.WithLock(false))
	require.NoError(t, err)
	require.NoError(t, unlocked.Close())

	require.NoError(t, h.Close())

	h, err = devices.Open(t.Context(), path, devices.WithLockTimeout(time.Second))
	require.NoError(t, err)
	require.NoError(t, h.Close())
}

func TestOpenUnsupported(t *testing.T) {
	t.Parallel()

	_, err := devices.Open(t.Context(), t.TempDir())
	require.ErrorIs(t, err, devices.ErrUnsupportedDevice)

	_, err = devices.Open(t.Context(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}

func TestEnumeratorUeventDevname(t *testing.T) {
	t.Parallel()

	root := sysfs(t)

	require.NoError(t, os.Mkdir(filepath.Join(root, "cciss!c0d0"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cciss!c0d0", "size"), []byte("64\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "cciss!c0d0", "uevent"),
		[]byte("MAJOR=104\nMINOR=0\nDEVNAME=cciss/c0d0\nDEVTYPE=disk\n"), 0o644))

	e := devices.NewEnumerator(devices.WithSysfsRoot(root), devices.WithDevRoot("/dev"))

	// "cciss!c0d0" sorts before "sda"
	dev, err := e.Resolve(devices.Identifier{Number: 0x80, Numeric: true})
	require.NoError(t, err)

	assert.Equal(t, "cciss!c0d0", dev.Name)
	assert.Equal(t, "/dev/cciss/c0d0", dev.Path)
	assert.EqualValues(t, 64*512, dev.Size)
}

func TestEnumeratorIgnore(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(
		devices.WithSysfsRoot(sysfs(t)),
		devices.WithIgnore(regexp.MustCompile(`^sdb$|^loop.*$|^zram.*$`)),
	)

	var names []string

	for dev, err := range e.Disks() {
		require.NoError(t, err)

		names = append(names, dev.Name)
	}

	assert.Equal(t, []string{"sda"}, names)

	// nil ignores nothing, virtual devices included
	e = devices.NewEnumerator(devices.WithSysfsRoot(sysfs(t)), devices.WithIgnore(nil))

	names = nil

	for dev, err := range e.Disks() {
		require.NoError(t, err)

		names = append(names, dev.Name)
	}

	assert.Equal(t, []string{"loop0", "sda", "sdb", "zram0"}, names)
}

func TestDeviceID(t *testing.T) {
	t.Parallel()

	e := devices.NewEnumerator(devices.WithSysfsRoot(sysfs(t)), devices.WithDevRoot("/dev"))

	for dev, err := range e.Volumes() {
		require.NoError(t, err)

		resolved, err := e.Resolve(dev.ID())
		require.NoError(t, err)
		assert.Equal(t, dev, resolved)
	}

	assert.Equal(t, "80h", devices.Device{Number: 0x80}.ID().String())
	assert.Equal(t, "01h", devices.Device{Kind: devices.KindVolume, Number: 1}.ID().String())

	dev, err := e.Resolve(devices.Identifier{Path: "/tmp/disk.img"})
	require.NoError(t, err)
	assert.Equal(t, devices.Identifier{Path: "/tmp/disk.img"}, dev.ID())
}
