// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package logging_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/bstool/pkg/logging"
)

func TestZapLoggerTee(t *testing.T) {
	t.Parallel()

	var debug, warn bytes.Buffer

	logger := logging.ZapLogger(
		logging.NewLogDestination(&debug, zapcore.DebugLevel, logging.WithoutTimestamp()),
		logging.NewLogDestination(&warn, zapcore.WarnLevel, logging.WithoutTimestamp(), logging.WithoutLogLevels()),
	).With(logging.Component("resolver"))

	logger.Debug("MBR read", zap.Uint64("lba", 0))
	logger.Warn("sector is past the end of the partition")

	assert.Equal(t,
		"DEBUG MBR read {\"component\": \"resolver\", \"lba\": 0}\n"+
			"WARN sector is past the end of the partition {\"component\": \"resolver\"}\n",
		debug.String(),
	)
	assert.Equal(t, "sector is past the end of the partition {\"component\": \"resolver\"}\n", warn.String())
}

func TestWrap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logging.Wrap(&buf).Debug("hello")

	assert.True(t, strings.HasSuffix(buf.String(), "DEBUG hello\n"), buf.String())
}

func TestNewCLILogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := logging.NewCLILogger(&buf, zapcore.InfoLevel)

	logger.Debug("hidden")
	logger.Info("shown")

	assert.Contains(t, buf.String(), "shown")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestZapLoggerPanicsWithoutDestinations(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() { logging.ZapLogger() })
}
