package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/vodforge/vodforge/pkg/configutils"
)

const agentEnvPrefix = "VODFORGE_AGENT"

func configProvider(cli *cobra.Command) fx.Option {
	return configutils.ProvideViperFromFile(agentEnvPrefix, cli.Flags(), configFilePath)
}
