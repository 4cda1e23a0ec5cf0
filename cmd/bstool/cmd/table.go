// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/ryanuber/columnize"
	"github.com/spf13/cobra"

	"github.com/siderolabs/bstool/pkg/blockdevice/lba"
	"github.com/siderolabs/bstool/pkg/mbr"
)

// tableCmd represents the table command.
var tableCmd = &cobra.Command{
	Use:   "table <disk>",
	Short: "Print the MBR partition table of a disk",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd, func(ctx context.Context, env *environment) error {
			h, resolver, err := openDevice(ctx, env, args[0])
			if err != nil {
				return err
			}

			defer h.Close() //nolint:errcheck

			m, err := resolver.PartitionTable()
			if err != nil {
				return err
			}

			return printTable(cmd.OutOrStdout(), m)
		})
	},
}

func printTable(w io.Writer, m *mbr.MasterBootRecord) error {
	fmt.Fprintf(w, "Disk signature: 0x%08x\n\n", m.DiskSignature())

	lines := []string{"PART | ACTIVE | TYPE | START | SECTORS | SIZE | CHS START | CHS END"}

	for i, entry := range m.Entries() {
		if !entry.Present() {
			lines = append(lines, fmt.Sprintf("%d | - | unused | - | - | - | - | -", i))

			continue
		}

		active := "no"
		if entry.Active() {
			active = "yes"
		}

		lines = append(lines, fmt.Sprintf("%d | %s | %s | %d | %d | %s | %s | %s",
			i,
			active,
			entry.Type,
			entry.StartLBA,
			entry.TotalSectors,
			humanize.Bytes(uint64(entry.TotalSectors)*lba.SectorSize),
			entry.Start,
			entry.End,
		))
	}

	_, err := fmt.Fprintln(w, columnize.SimpleFormat(lines))

	return err
}

func init() {
	addCommand(tableCmd)
}
