// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package mbr

import "fmt"

// PartitionType is the system id byte of a partition entry.
type PartitionType uint8

// Common partition types.
const (
	TypeEmpty         PartitionType = 0x00
	TypeFAT12         PartitionType = 0x01
	TypeFAT16         PartitionType = 0x04
	TypeExtendedCHS   PartitionType = 0x05
	TypeFAT16B        PartitionType = 0x06
	TypeNTFS          PartitionType = 0x07
	TypeFAT32CHS      PartitionType = 0x0B
	TypeFAT32LBA      PartitionType = 0x0C
	TypeFAT16BLBA     PartitionType = 0x0E
	TypeExtendedLBA   PartitionType = 0x0F
	TypeLinuxSwap     PartitionType = 0x82
	TypeLinux         PartitionType = 0x83
	TypeLinuxExtended PartitionType = 0x85
	TypeLinuxLVM      PartitionType = 0x8E
	TypeGPTProtective PartitionType = 0xEE
	TypeEFISystem     PartitionType = 0xEF
	TypeLinuxRAID     PartitionType = 0xFD
)

var typeNames = map[PartitionType]string{
	TypeEmpty:         "empty",
	TypeFAT12:         "FAT12",
	TypeFAT16:         "FAT16 <32M",
	TypeExtendedCHS:   "extended",
	TypeFAT16B:        "FAT16",
	TypeNTFS:          "NTFS/exFAT",
	TypeFAT32CHS:      "FAT32",
	TypeFAT32LBA:      "FAT32 (LBA)",
	TypeFAT16BLBA:     "FAT16 (LBA)",
	TypeExtendedLBA:   "extended (LBA)",
	TypeLinuxSwap:     "Linux swap",
	TypeLinux:         "Linux",
	TypeLinuxExtended: "Linux extended",
	TypeLinuxLVM:      "Linux LVM",
	TypeGPTProtective: "GPT protective",
	TypeEFISystem:     "EFI system",
	TypeLinuxRAID:     "Linux RAID",
}

func (t PartitionType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}

	return fmt.Sprintf("unknown (0x%02X)", uint8(t))
}

// Extended reports whether the type is a container of logical partitions.
func (t PartitionType) Extended() bool {
	return t == TypeExtendedCHS || t == TypeExtendedLBA || t == TypeLinuxExtended
}
