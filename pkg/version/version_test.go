// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package version_test

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bstool/pkg/version"
)

func TestInfo(t *testing.T) {
	t.Parallel()

	info := version.Info{Name: "bstool", Tag: "v0.1.0", SHA: "abcdef", GoVersion: runtime.Version(), OS: "linux", Arch: "amd64"}

	assert.Equal(t, "bstool v0.1.0-abcdef", info.Short())

	var buf bytes.Buffer

	require.NoError(t, info.WriteLong(&buf))
	assert.Contains(t, buf.String(), "\tTag:         v0.1.0\n")
	assert.Contains(t, buf.String(), "OS/Arch:     linux/amd64")

	assert.Equal(t, runtime.GOOS, version.NewInfo().OS)
}
