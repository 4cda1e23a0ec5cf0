// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package sector

import (
	"go.uber.org/zap"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
)

// Options is the functional options struct.
type Options struct {
	Addressing Addressing
	Geometry   lba.Geometry
	Logger     *zap.Logger
}

// Option is the functional option func.
type Option func(*Options)

// WithAddressing selects native or legacy CHS addressing.
func WithAddressing(o Addressing) Option {
	return func(args *Options) {
		args.Addressing = o
	}
}

// WithGeometry sets the geometry used for CHS translation.
func WithGeometry(o lba.Geometry) Option {
	return func(args *Options) {
		args.Geometry = o
	}
}

// WithLogger sets the logger.
func WithLogger(o *zap.Logger) Option {
	return func(args *Options) {
		args.Logger = o
	}
}

// NewDefaultOptions initializes a Options struct with default values.
func NewDefaultOptions(setters ...Option) *Options {
	opts := &Options{
		Addressing: AddressingNative,
		Geometry:   lba.DefaultGeometry,
		Logger:     zap.NewNop(),
	}

	for _, setter := range setters {
		setter(opts)
	}

	return opts
}
