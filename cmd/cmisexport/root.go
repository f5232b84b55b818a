package main

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/cmisexport/cmd/cmisexport/opts"
)

// defaultConfigFile is read when present and --config is not given
const defaultConfigFile = "cmisexport.yaml"

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, rootOpts *opts.RootOpts) {
	cmd.PersistentFlags().StringVarP(&rootOpts.ConfigFile, "config", "c", defaultConfigFile, "config file path (yaml, json or hcl)")
	cmd.PersistentFlags().BoolVarP(&rootOpts.Debug, "debug", "d", false, "enable debug logging")
}

// setupLogging builds the structured logger. Object lines go to stdout
// through the console logger, so structured output stays quiet unless
// debugging.
func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	if w == nil {
		w = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
