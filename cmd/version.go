package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AngleProtocol/merkl-dispute-sub000/conf"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), conf.GetVersion())
		},
	}
}
