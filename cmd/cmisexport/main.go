// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/walteh/cmisexport/cmd/cmisexport/commands"
	"github.com/walteh/cmisexport/cmd/cmisexport/opts"

	_ "github.com/walteh/cmisexport/pkg/repository/cmis"
)

func main() {
	rootOpts := &opts.RootOpts{}
	rootCmd := newRootCmd(rootOpts)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if rootOpts.UserLogger == nil {
			logger := setupLogging(nil, rootOpts.Debug)
			rootOpts.UserLogger = opts.NewUserLogger(logger.WithContext(context.Background()))
		}
		rootOpts.UserLogger.LogValidation(false, "Command failed", err)
		os.Exit(1)
	}
}

// newRootCmd wires the commands to shared options
func newRootCmd(rootOpts *opts.RootOpts) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmisexport",
		Short: "Export folders and documents from a CMIS repository",
		Long: `cmisexport copies a folder tree from a CMIS repository (browser binding)
to the local filesystem, writing each document next to a _metadata.xml file
holding its properties.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := setupLogging(nil, rootOpts.Debug)
			ctx := logger.WithContext(cmd.Context())
			rootOpts.UserLogger = opts.NewUserLogger(ctx)
			cmd.SetContext(ctx)
		},
	}

	addRootFlags(rootCmd, rootOpts)

	rootCmd.AddCommand(
		commands.NewExportCmd(rootOpts),
		commands.NewVersionCmd(),
	)

	return rootCmd
}
