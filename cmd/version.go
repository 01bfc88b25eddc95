package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the mangawatch version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mangawatch version:", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
