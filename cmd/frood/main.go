// Command frood generates controller registries and inspects frood configurations.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "frood",
		Short: "Frood code generator and routing tools",
		Long: `Frood routes URIs to controller actions.

The frood command generates the registration code of annotated controllers and
inspects routing configurations:

  frood gen ./...                       generate frood_registry.go files
  frood route -c frood.yaml /blog/post  show where a URI is routed to
  frood remote builder build start      dispatch an action on a remote host`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		genCmd(),
		routeCmd(),
		remoteCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "frood %s (%s)\n", version, commit)
		},
	}
}
