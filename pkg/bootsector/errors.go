// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package bootsector

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPartition is returned for an index outside 0-3 or an unused slot.
	ErrInvalidPartition = errors.New("invalid partition")
	// ErrMBRRead is returned when sector 0 can't be read.
	ErrMBRRead = errors.New("error reading MBR")
	// ErrInvalidMBR is returned when sector 0 has no 0x55 0xAA signature.
	ErrInvalidMBR = errors.New("invalid MBR")
	// ErrTargetRead is returned when the resolved sector can't be read.
	ErrTargetRead = errors.New("error reading partition sector")
)

// FailureKind classifies resolution failures.
type FailureKind int

// Failure kinds, the values are stable and usable as exit codes.
const (
	NoFailure FailureKind = iota
	InvalidPartition
	MbrReadFailure
	InvalidMbr
	TargetReadFailure
	UnknownFailure
)

func (k FailureKind) String() string {
	switch k {
	case NoFailure:
		return "none"
	case InvalidPartition:
		return "InvalidPartition"
	case MbrReadFailure:
		return "MbrReadFailure"
	case InvalidMbr:
		return "InvalidMbr"
	case TargetReadFailure:
		return "TargetReadFailure"
	case UnknownFailure:
		return "Unknown"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// KindOf returns the failure kind of an error returned by the Resolver.
func KindOf(err error) FailureKind {
	switch {
	case err == nil:
		return NoFailure
	case errors.Is(err, ErrInvalidPartition):
		return InvalidPartition
	case errors.Is(err, ErrMBRRead):
		return MbrReadFailure
	case errors.Is(err, ErrInvalidMBR):
		return InvalidMbr
	case errors.Is(err, ErrTargetRead):
		return TargetReadFailure
	default:
		return UnknownFailure
	}
}
