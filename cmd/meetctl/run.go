package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stake-plus/govmeet/src/meeting/commands"
)

var errCommandFailed = errors.New("command failed")

func printReply(out io.Writer, reply commands.Reply) {
	for _, line := range reply.Lines {
		fmt.Fprintln(out, line)
	}
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run <command...>",
		Short: "Run one meeting command, e.g. run agenda add Budget review",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			e, provider, err := openEngine(out)
			if err != nil {
				return err
			}
			defer provider.Close()

			d := commands.NewDispatcher(e, "cli")
			reply := d.Handle(cmd.Context(), globalFlags.channel, strings.Join(args, " "))
			printReply(out, reply)
			if reply.Error {
				return errCommandFailed
			}
			return nil
		},
	}
}
