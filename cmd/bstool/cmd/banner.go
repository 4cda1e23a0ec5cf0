// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siderolabs/bstool/cmd/bstool/pkg/helpers"
)

// printBanner prints the usage and the available devices, the device list is best effort.
func printBanner(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, "Boot sector dumper")
	fmt.Fprintln(w)
	fmt.Fprint(w, cmd.UsageString())

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available devices:")

	if err = printDevices(w, env.enumerator); err != nil {
		helpers.Warning(cmd.ErrOrStderr(), "%s", err)
	}

	return nil
}
