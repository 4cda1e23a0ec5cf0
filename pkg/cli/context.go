// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cli contains helpers shared by command line tools.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// WithContext runs f with a context which is cancelled on the first ^C or SIGTERM.
//
// A notice is written to stderr, a second signal terminates the process as usual.
func WithContext(ctx context.Context, f func(context.Context) error) error {
	return WithSignalContext(ctx, os.Stderr, f, os.Interrupt, syscall.SIGTERM)
}

// WithSignalContext is WithContext for a custom set of signals and notice destination.
func WithSignalContext(ctx context.Context, notice io.Writer, f func(context.Context) error, signals ...os.Signal) error {
	wrappedCtx, wrappedCtxCancel := context.WithCancel(ctx)
	defer wrappedCtxCancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)

	exited := make(chan struct{})
	defer close(exited)

	go func() {
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			wrappedCtxCancel()

			fmt.Fprintln(notice, "Signal received, aborting, press Ctrl+C once again to abort immediately...")
		case <-wrappedCtx.Done():
		case <-exited:
		}
	}()

	return f(wrappedCtx)
}
