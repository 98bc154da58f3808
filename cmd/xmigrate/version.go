// Version command for the xmigrate CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/besa-qa/xmigrate/pkg/xmigrate"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the xmigrate version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("xmigrate", xmigrate.Version)
	},
}
