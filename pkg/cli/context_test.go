// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cli_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siderolabs/bstool/pkg/cli"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func TestWithContextPassesError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	err := cli.WithContext(t.Context(), func(ctx context.Context) error {
		require.NoError(t, ctx.Err())

		return boom
	})
	require.ErrorIs(t, err, boom)
}

func TestWithSignalContextCancels(t *testing.T) { //nolint:paralleltest
	var notice syncBuffer

	err := cli.WithSignalContext(t.Context(), &notice, func(ctx context.Context) error {
		require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(10 * time.Second):
			return errors.New("context was not cancelled")
		}
	}, syscall.SIGUSR1)

	require.ErrorIs(t, err, context.Canceled)

	assert.Eventually(t, func() bool {
		return notice.String() != ""
	}, time.Second, 10*time.Millisecond)
}
