// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package cmd implements the bstool commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siderolabs/bstool/internal/pkg/config"
	"github.com/siderolabs/bstool/internal/pkg/devices"
	"github.com/siderolabs/bstool/pkg/blockdevice/sector"
	"github.com/siderolabs/bstool/pkg/cli"
	"github.com/siderolabs/bstool/pkg/logging"
)

var _ pflag.Value = (*sector.Addressing)(nil)

var rootCmdFlags struct {
	configPath string
	addressing sector.Addressing
	logLevel   string
	verbose    bool
	noLock     bool
}

// rootCmd dumps a boot sector when called with its three arguments.
var rootCmd = &cobra.Command{
	Use:   "bstool <disk> <part|-> <filename>",
	Short: "Boot sector dumper",
	Long: `Boot sector dumper.

Writes the first sector of a primary MBR partition, or the boot sector of the
device itself when the partition is "-", to a file.

<disk> is a device path, a disk image, a physical disk number (0x80, 0x81, ...)
or a logical volume number (0, 1, ...), see "bstool devices".
<part> is the primary partition number, 0 to 3. Arguments starting with "-"
other than "-" itself must follow "--", for example "bstool -- 0x80 -x out.bin".`,
	Args:              cobra.ArbitraryArgs,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 3 {
			return printBanner(cmd)
		}

		return withEnv(cmd, func(ctx context.Context, env *environment) error {
			return dump(ctx, cmd.OutOrStdout(), env, args)
		})
	},
}

// Execute runs the root command.
func Execute() error {
	cmd, err := rootCmd.ExecuteContextC(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())

		errorString := err.Error()
		if strings.Contains(errorString, "arg(s)") || strings.Contains(errorString, "flag") || strings.Contains(errorString, "command") {
			fmt.Fprintln(os.Stderr)
			fmt.Fprintln(os.Stderr, cmd.UsageString())
		}
	}

	return err
}

func addCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

func init() {
	flags := rootCmd.PersistentFlags()

	flags.StringVar(&rootCmdFlags.configPath, "config", "", fmt.Sprintf("path to the configuration file (defaults to $%s)", config.EnvConfig))
	flags.Var(&rootCmdFlags.addressing, "addressing", "sector addressing mode: native or chs")
	flags.StringVar(&rootCmdFlags.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVarP(&rootCmdFlags.verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&rootCmdFlags.noLock, "no-lock", false, "don't take the exclusive device lock")

	rootCmd.Flags().Uint64Var(&dumpCmdFlags.offset, "offset", 0, "sector offset from the partition start")
	rootCmd.Flags().BoolVar(&dumpCmdFlags.hexdump, "hexdump", false, "also print the sector to stdout")
}

// environment is the state shared by the commands.
type environment struct {
	config     *config.Config
	logger     *zap.Logger
	enumerator *devices.Enumerator
}

// loadEnvironment reads the configuration and applies the command line overrides.
func loadEnvironment(cmd *cobra.Command) (*environment, error) {
	cfg, err := config.Load(rootCmdFlags.configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()

	if flags.Changed("addressing") {
		cfg.Addressing = rootCmdFlags.addressing
	}

	if flags.Changed("log-level") {
		level, err := zapcore.ParseLevel(rootCmdFlags.logLevel)
		if err != nil {
			return nil, err
		}

		cfg.Log.Level = level
	}

	if rootCmdFlags.verbose {
		cfg.Log.Level = zapcore.DebugLevel
	}

	if rootCmdFlags.noLock {
		cfg.Lock.Enabled = false
	}

	ignore, err := cfg.IgnoreRegexp()
	if err != nil {
		return nil, err
	}

	logger := logging.NewCLILogger(cmd.ErrOrStderr(), cfg.Log.Level)

	return &environment{
		config: cfg,
		logger: logger,
		enumerator: devices.NewEnumerator(
			devices.WithSysfsRoot(cfg.Paths.Sysfs),
			devices.WithDevRoot(cfg.Paths.Dev),
			devices.WithIgnore(ignore),
			devices.WithEnumeratorLogger(logger.With(logging.Component("devices"))),
		),
	}, nil
}

// withEnv wraps common code to load the environment and provide a cancellable context.
func withEnv(cmd *cobra.Command, action func(context.Context, *environment) error) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}

	defer env.logger.Sync() //nolint:errcheck

	return cli.WithContext(cmd.Context(), func(ctx context.Context) error {
		return action(ctx, env)
	})
}

// openOptions returns the device open options for the environment.
func (env *environment) openOptions() []devices.OpenOption {
	return []devices.OpenOption{
		devices.WithLock(env.config.Lock.Enabled),
		devices.WithLockTimeout(env.config.Lock.Timeout),
		devices.WithOpenLogger(env.logger.With(logging.Component("devices"))),
	}
}

// readerOptions returns the sector reader options for the environment.
func (env *environment) readerOptions() []sector.Option {
	return []sector.Option{
		sector.WithAddressing(env.config.Addressing),
		sector.WithGeometry(env.config.LBAGeometry()),
		sector.WithLogger(env.logger.With(logging.Component("sector"))),
	}
}
