package main

import (
	"github.com/spf13/cobra"
	"github.com/toyz/frood/internal/config"
	"github.com/toyz/frood/pkg/frood"
	froodcli "github.com/toyz/frood/pkg/frood/cli"
)

func routeCmd() *cobra.Command {
	var configPath string

	cmd := froodcli.NewRouteCommand(func() (*frood.Configuration, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		return cfg.Frood()
	})
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "configuration file (default ./frood.yaml)")
	return cmd
}
