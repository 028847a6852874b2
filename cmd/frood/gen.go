package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/toyz/frood/internal/cli"
	"github.com/toyz/frood/internal/utils"
)

type genOptions struct {
	module  string
	verbose bool
	quiet   bool
	clean   bool
	dryRun  bool
}

func genCmd() *cobra.Command {
	var opts genOptions

	cmd := &cobra.Command{
		Use:   "gen <directory-paths...>",
		Short: "Generate controller registries from //frood:: annotations",
		Long: `Scan directories for Go files with //frood:: annotations and write a
frood_registry.go file registering the controllers of every package.

Directory patterns:
  ./...              Scan current directory and all subdirectories recursively
  ./internal/...     Scan internal directory and all its subdirectories
  ./controllers      Scan only the specific directory (no recursion)`,
		Example: `  frood gen ./...
  frood gen --module github.com/myorg/myapp ./controllers/...
  frood gen --clean ./...`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.module, "module", "", "custom module name for imports (defaults to go.mod module)")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output and detailed error reporting")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only show errors")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "delete the generated registry files instead")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "check annotations and render without writing files")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	cmd.MarkFlagsMutuallyExclusive("clean", "dry-run")
	return cmd
}

func runGen(cmd *cobra.Command, opts genOptions, args []string) error {
	level := utils.DiagnosticInfo
	switch {
	case opts.quiet:
		level = utils.DiagnosticError
	case opts.verbose:
		level = utils.DiagnosticVerbose
	}
	diagnostics := utils.NewDiagnosticSystemTo(level, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if opts.clean {
		diagnostics.FroodHeader("Removing generated registries")
		removed, err := cli.NewCleaner(diagnostics).CleanGeneratedFiles(args)
		if err != nil {
			return err
		}
		diagnostics.Info("Removed %d registry files from %s", len(removed), strings.Join(args, ", "))
		return nil
	}

	reporter := cli.NewDiagnosticReporter(opts.verbose)
	reporter.SetOutput(cmd.ErrOrStderr())

	generator := cli.NewGenerator(diagnostics, reporter)
	return generator.Run(cli.Config{
		Directories: args,
		ModuleName:  opts.module,
		Verbose:     opts.verbose,
		DryRun:      opts.dryRun,
	})
}
