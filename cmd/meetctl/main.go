package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/stake-plus/govmeet/src/meeting/engine"
	"github.com/stake-plus/govmeet/src/meeting/store"
)

const programName = "meetctl"

var globalFlags = struct {
	dataDir string
	channel string
	verbose bool
}{}

// openEngine builds an engine over the sqlite files in the data dir.
// Topic notifications are printed since there is no chat to apply them to.
func openEngine(out io.Writer) (*engine.Engine, store.Provider, error) {
	provider, err := store.NewFileProvider(globalFlags.dataDir, nil)
	if err != nil {
		return nil, nil, err
	}
	notifier := engine.NotifierFunc(func(_ context.Context, n engine.Notification) error {
		_, err := fmt.Fprintf(out, "[topic %s] %s\n", n.Channel, n.Text)
		return err
	})
	return engine.New(provider, notifier), provider, nil
}

func rootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Run meeting commands against a local data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !globalFlags.verbose {
				log.SetOutput(io.Discard)
			}
		},
	}

	rootCmd.PersistentFlags().
		StringVarP(&globalFlags.dataDir, "data-dir", "d", "./data", "directory holding one sqlite file per channel")
	rootCmd.PersistentFlags().
		StringVarP(&globalFlags.channel, "channel", "c", "local", "channel the commands apply to")
	rootCmd.PersistentFlags().
		BoolVarP(&globalFlags.verbose, "verbose", "v", false, "show log output")

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(shellCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(remoteCommand())
	return rootCmd
}

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", programName, err)
		os.Exit(1)
	}
}
