package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/triad-agents/triad/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("triad %s %s/%s\n", version.Get(), runtime.GOOS, runtime.GOARCH)
	},
}
