package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeffrom/logrelay/config"
)

var (
	ReleaseVersion = "none"
	ReleaseDate    = "none"
	ReleaseCommit  = "none"
)

func init() {
	config.RegisterFlags(RootCmd.PersistentFlags(), config.Default)
	RootCmd.AddCommand(WriteCmd)
	RootCmd.AddCommand(VersionCmd)
}

// RootCmd is the producer side command line tool.
var RootCmd = &cobra.Command{
	Use:           "log-cli",
	Short:         "Send records to the log relay",
	Long:          ``,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Load(cmd.Flags(), config.Default)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "log-cli: %v\n", err)
		os.Exit(1)
	}
}
