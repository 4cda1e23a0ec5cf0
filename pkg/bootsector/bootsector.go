// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package bootsector locates and reads the boot sector of a device or of one of its primary MBR partitions.
package bootsector

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
	"github.com/siderolabs/bstool/pkg/blockdevice/sector"
	"github.com/siderolabs/bstool/pkg/mbr"
)

// SectorReader reads a single sector.
type SectorReader interface {
	ReadSector(addr lba.Address) (*sector.Sector, error)
}

// Target selects the sector to resolve.
type Target struct {
	// Raw selects sector 0 of the device itself, Partition and Offset are ignored.
	Raw bool

	Partition int
	Offset    uint64
}

func (t Target) String() string {
	if t.Raw {
		return "device boot sector"
	}

	return fmt.Sprintf("partition %d sector %d", t.Partition, t.Offset)
}

// Resolver reads the MBR, picks a partition entry and reads a sector relative to its start.
//
// Resolver keeps no state between calls.
type Resolver struct {
	r      SectorReader
	logger *zap.Logger
}

// NewResolver initializes a Resolver, logger may be nil.
func NewResolver(r SectorReader, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		r:      r,
		logger: logger,
	}
}

// Resolve reads the sector selected by the target.
func (r *Resolver) Resolve(t Target) (*sector.Sector, error) {
	if t.Raw {
		return r.DeviceBootSector()
	}

	return r.ResolvePartitionSector(t.Partition, t.Offset)
}

// DeviceBootSector reads sector 0 of the device as is, the partition table is not inspected.
func (r *Resolver) DeviceBootSector() (*sector.Sector, error) {
	s, err := r.r.ReadSector(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMBRRead, err)
	}

	return s, nil
}

// PartitionTable reads and decodes the MBR.
func (r *Resolver) PartitionTable() (*mbr.MasterBootRecord, error) {
	s, err := r.r.ReadSector(0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMBRRead, err)
	}

	r.logger.Debug("MBR read")

	m, err := mbr.Decode(s[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMBR, err)
	}

	r.logger.Debug("MBR validated", zap.Uint32("disk_signature", m.DiskSignature()))

	return m, nil
}

// ResolvePartitionSector reads sector offset of primary partition index (0-3).
//
// The checks run in order and the first failure wins: partition index,
// MBR read, MBR signature, unused slot, target read.
func (r *Resolver) ResolvePartitionSector(index int, offset uint64) (*sector.Sector, error) {
	if index < 0 || index >= mbr.PartitionEntryCount {
		return nil, fmt.Errorf("%w: partition number %d is not in [0, %d]", ErrInvalidPartition, index, mbr.PartitionEntryCount-1)
	}

	m, err := r.PartitionTable()
	if err != nil {
		return nil, err
	}

	entry, err := m.Entry(index)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPartition, err)
	}

	if !entry.Present() {
		return nil, fmt.Errorf("%w: partition slot %d is unused", ErrInvalidPartition, index)
	}

	r.logger.Debug("partition entry resolved",
		zap.Int("partition", index),
		zap.Uint32("start_lba", entry.StartLBA),
		zap.Uint32("total_sectors", entry.TotalSectors),
		zap.Stringer("type", entry.Type),
	)

	addr, err := lba.Address(entry.StartLBA).Add(offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTargetRead, err)
	}

	if entry.TotalSectors != 0 && offset >= uint64(entry.TotalSectors) {
		r.logger.Warn("sector is past the end of the partition", zap.Uint64("offset", offset), zap.Uint32("total_sectors", entry.TotalSectors))
	}

	s, err := r.r.ReadSector(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTargetRead, err)
	}

	r.logger.Debug("sector read", zap.Uint64("lba", uint64(addr)))

	return s, nil
}
