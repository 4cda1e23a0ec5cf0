// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package mbr decodes the classic Master Boot Record and its four primary partition entries.
package mbr

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// On-disk layout.
const (
	Size = 512

	DiskSignatureOffset  = 440
	PartitionTableOffset = 0x1BE
	PartitionEntrySize   = 16
	PartitionEntryCount  = 4
	SignatureOffset      = 510
)

// Signature bytes at SignatureOffset.
var Signature = [2]byte{0x55, 0xAA}

var (
	// ErrShortRecord is returned when the record is not exactly 512 bytes.
	ErrShortRecord = errors.New("master boot record must be 512 bytes")
	// ErrInvalidSignature is returned when bytes 510-511 are not 0x55 0xAA.
	ErrInvalidSignature = errors.New("invalid master boot record signature")
)

// StatusActive marks a bootable partition.
const StatusActive = 0x80

// PackedCHS is a cylinder/head/sector triple as stored in a partition entry.
type PackedCHS struct {
	Cylinder uint16
	Head     uint8
	Sector   uint8
}

func (chs PackedCHS) String() string {
	return fmt.Sprintf("%d/%d/%d", chs.Cylinder, chs.Head, chs.Sector)
}

// decodeCHS decodes head, sector/cylinder-high and cylinder-low bytes.
func decodeCHS(raw []byte) PackedCHS {
	return PackedCHS{
		Head:     raw[0],
		Sector:   raw[1] & 0x3F,
		Cylinder: uint16(raw[2]) | uint16(raw[1]&0xC0)<<2,
	}
}

// PartitionEntry is a single 16 byte partition table slot.
type PartitionEntry struct {
	Status       uint8
	Start        PackedCHS
	Type         PartitionType
	End          PackedCHS
	StartLBA     uint32
	TotalSectors uint32
}

// DecodeEntry decodes a 16 byte partition entry.
func DecodeEntry(b []byte) (PartitionEntry, error) {
	if len(b) != PartitionEntrySize {
		return PartitionEntry{}, fmt.Errorf("partition entry is %d bytes instead of expected %d", len(b), PartitionEntrySize)
	}

	return PartitionEntry{
		Status:       b[0],
		Start:        decodeCHS(b[1:4]),
		Type:         PartitionType(b[4]),
		End:          decodeCHS(b[5:8]),
		StartLBA:     binary.LittleEndian.Uint32(b[8:12]),
		TotalSectors: binary.LittleEndian.Uint32(b[12:16]),
	}, nil
}

// Present reports whether the slot points to a partition.
func (e PartitionEntry) Present() bool {
	return e.StartLBA != 0
}

// Active reports whether the partition is marked bootable.
func (e PartitionEntry) Active() bool {
	return e.Status == StatusActive
}

// MasterBootRecord is a decoded sector 0.
type MasterBootRecord struct {
	raw [Size]byte

	entries [PartitionEntryCount]PartitionEntry
}

// HasSignature checks the 0x55 0xAA signature without decoding anything else.
func HasSignature(b []byte) bool {
	return len(b) == Size && b[SignatureOffset] == Signature[0] && b[SignatureOffset+1] == Signature[1]
}

// Decode validates and decodes a raw 512 byte record.
func Decode(b []byte) (*MasterBootRecord, error) {
	if len(b) != Size {
		return nil, fmt.Errorf("%w: got %d", ErrShortRecord, len(b))
	}

	if !HasSignature(b) {
		return nil, fmt.Errorf("%w: % X", ErrInvalidSignature, b[SignatureOffset:])
	}

	m := &MasterBootRecord{}
	copy(m.raw[:], b)

	for i := range m.entries {
		start := PartitionTableOffset + i*PartitionEntrySize

		entry, err := DecodeEntry(b[start : start+PartitionEntrySize])
		if err != nil {
			return nil, fmt.Errorf("error decoding partition entry %d: %w", i, err)
		}

		m.entries[i] = entry
	}

	return m, nil
}

// Entry returns the partition entry at index 0-3.
func (m *MasterBootRecord) Entry(index int) (PartitionEntry, error) {
	if index < 0 || index >= PartitionEntryCount {
		return PartitionEntry{}, fmt.Errorf("partition index %d out of range [0, %d]", index, PartitionEntryCount-1)
	}

	return m.entries[index], nil
}

// Entries returns all four partition entries, unused ones included.
func (m *MasterBootRecord) Entries() []PartitionEntry {
	return append([]PartitionEntry(nil), m.entries[:]...)
}

// DiskSignature returns the optional 32-bit disk identifier.
func (m *MasterBootRecord) DiskSignature() uint32 {
	return binary.LittleEndian.Uint32(m.raw[DiskSignatureOffset : DiskSignatureOffset+4])
}

// Bytes returns a copy of the raw record.
func (m *MasterBootRecord) Bytes() []byte {
	return append([]byte(nil), m.raw[:]...)
}
