package commands

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/cmisexport/cmd/cmisexport/opts"
	"github.com/walteh/cmisexport/pkg/config"
	"github.com/walteh/cmisexport/pkg/log"
	"github.com/walteh/cmisexport/pkg/operation"
	"github.com/walteh/cmisexport/pkg/repository"
	"github.com/walteh/cmisexport/pkg/status"
	"gitlab.com/tozd/go/errors"
)

// exportFlags holds the values of flags that override the config file
type exportFlags struct {
	url           string
	repositoryID  string
	user          string
	path          string
	dest          string
	maxDepth      int
	fullPaths     bool
	wellFormedXML bool
	ignore        []string
}

// NewExportCmd creates a new export command
func NewExportCmd(rootOpts *opts.RootOpts) *cobra.Command {
	cmd, _ := newExportCmd(rootOpts)
	return cmd
}

func newExportCmd(rootOpts *opts.RootOpts) (*cobra.Command, *exportFlags) {
	flags := &exportFlags{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a repository folder tree to the local filesystem",
		Long: `Export copies every folder and document below a starting folder of a
CMIS repository into a local directory.
It will:
1. Resolve the starting folder
2. Create a directory for every descendant folder
3. Write every descendant document and its _metadata.xml file

Credentials can come from the CMIS_PASSWORD and CMIS_TOKEN environment variables.`,
		Example: `  cmisexport export --url https://cms.example.com/cmis/browser --user admin --path /site/docs --dest ./out
  cmisexport export -c export.hcl --debug`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := zerolog.Ctx(cmd.Context()).With().Str("command", "export").Logger().WithContext(cmd.Context())

			cfg, err := resolveConfig(ctx, cmd, rootOpts.ConfigFile, flags)
			if err != nil {
				return err
			}

			return runExport(ctx, cfg, rootOpts.UserLogger)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.url, "url", "", "browser binding service url")
	f.StringVar(&flags.repositoryID, "repository", "", "repository id (first repository when empty)")
	f.StringVar(&flags.user, "user", "", "username for basic auth")
	f.StringVar(&flags.path, "path", "", "starting repository folder")
	f.StringVar(&flags.dest, "dest", "", "local destination directory")
	f.IntVar(&flags.maxDepth, "max-depth", -1, "maximum depth (accepted, not enforced)")
	f.BoolVar(&flags.fullPaths, "full-paths", false, "keep full repository paths below the destination")
	f.BoolVar(&flags.wellFormedXML, "well-formed-xml", false, "write well-formed metadata files")
	f.StringSliceVar(&flags.ignore, "ignore", nil, "glob of repository paths to skip, repeatable")

	return cmd, flags
}

// resolveConfig loads the config file when there is one and applies flags on top
func resolveConfig(ctx context.Context, cmd *cobra.Command, configFile string, flags *exportFlags) (*config.Config, error) {
	cfg := &config.Config{}

	if configFile != "" {
		_, statErr := os.Stat(configFile)
		explicit := cmd.Flags().Changed("config") || cmd.InheritedFlags().Changed("config")
		if statErr == nil || explicit {
			loaded, err := config.Load(ctx, configFile)
			if err != nil {
				return nil, errors.Errorf("loading config: %w", err)
			}
			cfg = loaded
		} else {
			zerolog.Ctx(ctx).Debug().Str("path", configFile).Msg("no config file, using flags only")
		}
	}

	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.Repository.URL = flags.url
	}
	if changed("repository") {
		cfg.Repository.RepositoryID = flags.repositoryID
	}
	if changed("user") {
		cfg.Repository.Username = flags.user
	}
	if changed("path") {
		cfg.Export.Path = flags.path
	}
	if changed("dest") {
		cfg.Export.Destination = flags.dest
	}
	if changed("max-depth") {
		cfg.Export.MaxDepth = flags.maxDepth
	}
	if changed("full-paths") {
		cfg.Export.FullPaths = flags.fullPaths
	}
	if changed("well-formed-xml") {
		cfg.Export.WellFormedXML = flags.wellFormedXML
	}
	if changed("ignore") {
		cfg.Export.Ignore = append(cfg.Export.Ignore, flags.ignore...)
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// runExport opens the repository and runs one export
func runExport(ctx context.Context, cfg *config.Config, user *opts.UserLogger) error {
	logger := zerolog.Ctx(ctx)

	session, err := repository.Open(ctx, cfg.Repository)
	if err != nil {
		return errors.Errorf("opening repository: %w", err)
	}

	console := log.New(os.Stdout, *logger)
	ctx = log.NewContext(ctx, console)

	files := status.New(cfg.Export.Destination, logger)

	op, err := operation.NewExportOperation(operation.Options{
		Export:  cfg.Export,
		Session: session,
		Files:   files,
		Console: log.FromContext(ctx),
	})
	if err != nil {
		return errors.Errorf("creating export: %w", err)
	}

	runner := operation.NewRunner(uuid.NewString())

	user.LogStateChange("exporting " + cfg.String())
	console.StartExport(ctx, log.ExportOperation{
		RunID:       runner.RunID(),
		Source:      cfg.Export.Path,
		Destination: cfg.Export.Destination,
	})
	defer console.EndExport(ctx)

	if err := runner.Run(ctx, op); err != nil {
		return err
	}

	console.LogNewline()
	user.LogValidation(true, status.NewDefaultFileFormatter().FormatSummary(files.Summary(ctx)), nil)
	return nil
}
