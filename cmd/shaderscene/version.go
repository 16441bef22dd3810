package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gogpu/shaderscene"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of shaderscene",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "shaderscene version %s\n", shaderscene.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
