package cmd

import (
	"github.com/spf13/cobra"

	"github.com/AngleProtocol/merkl-dispute-sub000/conf"
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "merkl-dispute",
		Short:         "Verifies published reward trees and disputes the invalid ones",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to the config file, defaults to $"+conf.EnvConfigPath+" then ~/.config/merkl-dispute/config.toml")

	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(treeCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(keyCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func loadConf(cmd *cobra.Command) (*conf.Conf, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return conf.Load(path)
}
