// SPDX-License-Identifier: MIT

// Implements the pcapflow "root" command and its global CLI flags, following
// the teacher's rootCmd/SetupCLI shape minus the plugin-group machinery: this
// module has a single, fixed set of commands, so there is no need for
// plugger-style self-registration.
package command

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pcapflow/pcapflow/cli"
)

// ConfigPath is the optional --config flag value: a YAML file overlaying the
// other persistent flags.
var ConfigPath string

// RejectOld and RejectNG mirror pcapflow.Config's two format-rejection
// switches as persistent CLI flags.
var (
	RejectOld bool
	RejectNG  bool
	Debug     bool
)

// rootCmd represents the pcapflow CLI itself.
var rootCmd = &cobra.Command{
	Use:   "pcapflow",
	Short: "Decode legacy PCAP and PCAPng capture streams",
	Long: `pcapflow is a CLI tool for streaming decode of legacy PCAP and PCAPng
network capture files: it detects the format automatically, recovers
endianness and timestamp resolution, and reports one event per section,
interface, packet, name resolution, statistics, secrets and custom block.`,
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		fileCfg, err := cli.LoadFileConfig(ConfigPath)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("reject-old") {
			RejectOld = fileCfg.RejectOld
		}
		if !cmd.Flags().Changed("reject-ng") {
			RejectNG = fileCfg.RejectNG
		}
		if !cmd.Flags().Changed("debug") {
			Debug = fileCfg.Debug
		}
		if Debug {
			log.SetLevel(log.DebugLevel)
		}
		return nil
	},
}

// SetupCLI registers the global ("persistent") CLI flags and the
// sub-commands, and returns the root command ready for Execute.
func SetupCLI() *cobra.Command {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&ConfigPath, "config", "c", "",
		"Path to a YAML file overlaying the other persistent flags")
	pf.BoolVar(&RejectOld, "reject-old", false,
		"Treat a legacy PCAP stream as a fatal format error instead of decoding it")
	pf.BoolVar(&RejectNG, "reject-ng", false,
		"Treat a PCAPng stream as a fatal format error instead of decoding it")
	pf.BoolVar(&Debug, "debug", false,
		"Enable debug logging")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(versionCmd)
	return rootCmd
}
