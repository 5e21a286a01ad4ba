package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stake-plus/govmeet/src/meeting/commands"
)

func shellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Read meeting commands from stdin, one per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			e, provider, err := openEngine(out)
			if err != nil {
				return err
			}
			defer provider.Close()

			d := commands.NewDispatcher(e, "cli")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" || strings.HasPrefix(line, "#") {
					continue
				}
				if line == "quit" || line == "exit" {
					return nil
				}
				printReply(out, d.Handle(cmd.Context(), globalFlags.channel, line))
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read commands: %w", err)
			}
			return nil
		},
	}
}
