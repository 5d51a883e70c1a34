package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AngleProtocol/merkl-dispute-sub000/conf"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			flagPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			path, err := conf.ResolvePath(flagPath)
			if err != nil {
				return err
			}
			created, err := conf.WriteDefault(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "config already exists at %s\n", path)
			}
			return nil
		},
	}
	cmd.AddCommand(initCmd)
	return cmd
}
