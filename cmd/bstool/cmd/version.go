// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/siderolabs/bstool/pkg/version"
)

var versionCmdFlags struct {
	short bool
}

// versionCmd represents the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.NewInfo()

		if versionCmdFlags.short {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Short())

			return err
		}

		return info.WriteLong(cmd.OutOrStdout())
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionCmdFlags.short, "short", false, "Print the short version")
	addCommand(versionCmd)
}
