package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/ocrules/internal/app"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFiles   []string
	Verbose    bool
}

// NewRootCommand creates the root command for the ocrules CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ocrules",
		Short: "Validate OpenClinica business rules",
		Long: `Run the rule tests authored in spreadsheets against a live OpenClinica
study through a browser, and write PDF reports of which rules behave as
expected.`,
		Version:       app.BuildVersion + " (" + app.BuildCommit + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := app.LoadEnvFiles(opts.EnvFiles...); err != nil {
				return &usageError{err}
			}
			setVerbose(opts.Verbose)
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return &usageError{err}
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "YAML or JSON config file")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", []string{".env"}, "dotenv files to load, later ones win")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewScaffoldCommand(opts))

	return cmd
}

func setVerbose(v bool) {
	if v {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// usageArgs reports argument count errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}
