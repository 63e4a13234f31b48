package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jeffrom/logrelay/client"
	"github.com/jeffrom/logrelay/config"
	"github.com/jeffrom/logrelay/daemon"
	"github.com/jeffrom/logrelay/diag"
	"github.com/jeffrom/logrelay/fallback"
	"github.com/jeffrom/logrelay/internal"
)

var (
	ReleaseVersion = "none"
	ReleaseDate    = "none"
	ReleaseCommit  = "none"
)

func init() {
	config.RegisterFlags(RootCmd.Flags(), config.Default)
	RootCmd.AddCommand(VersionCmd)
}

// RootCmd runs the relay daemon. Positional arguments aren't accepted; they
// are passed through so startup can reject them.
var RootCmd = &cobra.Command{
	Use:           "logrelayd",
	Short:         "Append log records from local processes to a single file",
	Long:          ``,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(cmd.Flags(), config.Default)
		if err != nil {
			return err
		}
		return runDaemon(conf, args)
	},
}

var VersionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Print version and exit",
	Long:    ``,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("version: %s, released: %s, commit: %s\n",
			ReleaseVersion, ReleaseDate, ReleaseCommit)
	},
}

func runDaemon(conf *config.Config, args []string) error {
	sink, err := fallback.New(conf)
	if err != nil {
		return err
	}

	// until startup decides otherwise, the daemon logs like any other
	// producer: through the socket, or the system log if nobody listens.
	shared, err := client.New(conf).WithFallback(sink)
	if err != nil {
		internal.LogError(sink.Close())
		return err
	}
	defer func() { _ = internal.CloseAll([]io.Closer{shared, sink}) }()

	d := daemon.New(conf, sink, diag.New(conf, diag.SharedChannel(shared)))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	return d.Serve(ctx, args)
}

func main() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "logrelayd: %v\n", err)
		os.Exit(1)
	}
}
