// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/dustin/go-humanize"
	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/siderolabs/bstool/cmd/bstool/pkg/helpers"
	"github.com/siderolabs/bstool/internal/pkg/devices"
)

// devicesCmd represents the devices command.
var devicesCmd = &cobra.Command{
	Use:     "devices",
	Aliases: []string{"ls"},
	Short:   "List physical disks and logical volumes with their numbers",
	Long:    ``,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(_ context.Context, env *environment) error {
			return printDevices(cmd.OutOrStdout(), env.enumerator)
		})
	},
}

// printDevices prints every device which could be listed and returns the probe errors.
func printDevices(w io.Writer, e *devices.Enumerator) error {
	var probeErrors error

	lines := []string{"ID | NAME | KIND | SIZE | MODEL | PARENT"}

	collect := func(seq iter.Seq2[devices.Device, error]) {
		for dev, err := range seq {
			if err != nil {
				probeErrors = helpers.AppendErrors(probeErrors, err)

				if dev.Name == "" {
					continue
				}
			}

			lines = append(lines, fmt.Sprintf("%s | %s | %s | %s | %s | %s",
				dev.ID(),
				dev.Name,
				dev.Kind,
				humanize.Bytes(dev.Size),
				placeholder(dev.Model),
				placeholder(dev.Parent),
			))
		}
	}

	collect(e.Disks())
	collect(e.Volumes())

	fmt.Fprintln(w, columnize.SimpleFormat(lines))

	return probeErrors
}

func placeholder(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

func init() {
	addCommand(devicesCmd)
}
