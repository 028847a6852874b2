package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toyz/frood/internal/config"
	"github.com/toyz/frood/internal/logging"
	"github.com/toyz/frood/pkg/frood"
	froodcli "github.com/toyz/frood/pkg/frood/cli"
)

func remoteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remote <remote> <controller> <action> [name=value...]",
		Short: "Dispatch an action on a configured remote host",
		Long: `Dispatch an action on a remote host listed under remotes in the configuration
and print the response body. Parameters follow the run command conventions.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closer.Close()

			params, err := froodcli.ParseArgs(args[3:])
			if err != nil {
				return err
			}
			remote, err := cfg.Remote(args[0], frood.WithRemoteLogger(logger))
			if err != nil {
				return err
			}

			body, err := remote.Dispatch(cmd.Context(), args[1], args[2], params)
			if err != nil {
				var remoteErr *frood.RemoteDispatchError
				if errors.As(err, &remoteErr) {
					for _, reported := range remoteErr.Errors() {
						fmt.Fprintf(cmd.ErrOrStderr(), "remote: %s\n", reported)
					}
				}
				return err
			}
			_, err = cmd.OutOrStdout().Write(body)
			return err
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (default ./frood.yaml)")
	return cmd
}
