// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package config implements the bstool configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/siderolabs/bstool/internal/pkg/devices"
	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
	"github.com/siderolabs/bstool/pkg/blockdevice/sector"
)

// EnvConfig is the environment variable consulted when no config path is given.
const EnvConfig = "BSTOOL_CONFIG"

// Config is the bstool configuration.
type Config struct {
	Addressing sector.Addressing `yaml:"addressing"`
	Geometry   Geometry          `yaml:"geometry"`
	Lock       Lock              `yaml:"lock"`
	Paths      Paths             `yaml:"paths"`
	Devices    Devices           `yaml:"devices"`
	Log        Log               `yaml:"log"`
}

// Geometry is the disk geometry used for CHS addressing.
type Geometry struct {
	Heads           uint32 `yaml:"heads"`
	SectorsPerTrack uint32 `yaml:"sectorsPerTrack"`
	Cylinders       uint32 `yaml:"cylinders"`
}

// Lock configures device locking.
type Lock struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

// Paths locate the device tree.
type Paths struct {
	Sysfs string `yaml:"sysfs"`
	Dev   string `yaml:"dev"`
}

// Devices configures enumeration.
type Devices struct {
	// Ignore is a regular expression of block device names to skip, empty skips nothing.
	Ignore string `yaml:"ignore"`
}

// Log configures logging.
type Log struct {
	Level zapcore.Level `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Addressing: sector.AddressingNative,
		Geometry: Geometry{
			Heads:           lba.DefaultGeometry.HeadsPerCylinder,
			SectorsPerTrack: lba.DefaultGeometry.SectorsPerTrack,
			Cylinders:       lba.DefaultGeometry.Cylinders,
		},
		Lock: Lock{
			Enabled: true,
			Timeout: devices.DefaultLockTimeout,
		},
		Paths: Paths{
			Sysfs: "/sys/block",
			Dev:   "/dev",
		},
		Devices: Devices{
			Ignore: devices.DefaultIgnore.String(),
		},
		Log: Log{
			Level: zapcore.WarnLevel,
		},
	}
}

// IgnoreRegexp compiles the device ignore pattern, nil when it is empty.
func (c *Config) IgnoreRegexp() (*regexp.Regexp, error) {
	if c.Devices.Ignore == "" {
		return nil, nil
	}

	re, err := regexp.Compile(c.Devices.Ignore)
	if err != nil {
		return nil, fmt.Errorf("invalid device ignore pattern: %w", err)
	}

	return re, nil
}

// LBAGeometry converts the configured geometry.
func (c *Config) LBAGeometry() lba.Geometry {
	return lba.Geometry{
		HeadsPerCylinder: c.Geometry.Heads,
		SectorsPerTrack:  c.Geometry.SectorsPerTrack,
		Cylinders:        c.Geometry.Cylinders,
	}
}

// Validate the configuration.
func (c *Config) Validate() error {
	var errs []error

	switch c.Addressing {
	case sector.AddressingNative, sector.AddressingCHS:
	default:
		errs = append(errs, fmt.Errorf("unsupported addressing %s", c.Addressing))
	}

	if err := c.LBAGeometry().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("geometry: %w", err))
	}

	if c.Lock.Timeout < 0 {
		errs = append(errs, fmt.Errorf("lock timeout can't be negative: %s", c.Lock.Timeout))
	}

	if c.Paths.Sysfs == "" {
		errs = append(errs, errors.New("sysfs path can't be empty"))
	}

	if c.Paths.Dev == "" {
		errs = append(errs, errors.New("dev path can't be empty"))
	}

	if _, err := c.IgnoreRegexp(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Decode reads a YAML document on top of the defaults.
//
// Unknown fields are rejected, an empty document yields the defaults.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Load reads the configuration from path, $BSTOOL_CONFIG if path is empty.
//
// Without either the defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}

	if path == "" {
		return Default(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Bytes marshals the configuration.
func (c *Config) Bytes() ([]byte, error) {
	return yaml.Marshal(c)
}
