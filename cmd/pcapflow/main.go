// SPDX-License-Identifier: MIT

// This is the main entry of the pcapflow CLI tool. There isn't actually much
// here to do except for running the pcapflow "root" command, which will parse
// the CLI args and then invoke the correct command.

package main

import (
	"os"

	"github.com/pcapflow/pcapflow/cli/command"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

func main() {
	// Establish logger output format in case we're hitting errors, et cetera.
	f := new(prefixed.TextFormatter)
	f.DisableColors = true
	f.ForceFormatting = true
	f.FullTimestamp = true
	f.TimestampFormat = "15:04:05"
	log.SetFormatter(f)

	if err := command.SetupCLI().Execute(); err != nil {
		os.Exit(1)
	}
}
