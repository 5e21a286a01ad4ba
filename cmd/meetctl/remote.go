package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/stake-plus/govmeet/src/webclient"
)

var remoteFlags = struct {
	api    string
	token  string
	secret string
}{}

// signToken mints a short-lived HS256 token for servers that share secret.
func signToken(secret string, now time.Time) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   programName,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
	})
	return tok.SignedString([]byte(secret))
}

func remoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remote <command...>",
		Short: "Run one meeting command against a running govmeet API",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := remoteFlags.token
			if token == "" && remoteFlags.secret != "" {
				var err error
				if token, err = signToken(remoteFlags.secret, time.Now()); err != nil {
					return fmt.Errorf("sign token: %w", err)
				}
			}
			if token == "" {
				return errors.New("remote commands need --token or --secret")
			}

			client := webclient.New(remoteFlags.api, token)
			reply, err := client.Command(cmd.Context(), globalFlags.channel, strings.Join(args, " "))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range reply.Lines {
				fmt.Fprintln(out, line)
			}
			if reply.Error {
				return errCommandFailed
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&remoteFlags.api, "api", "http://localhost:8080", "base URL of the govmeet API")
	cmd.Flags().StringVar(&remoteFlags.token, "token", os.Getenv("GOVMEET_API_TOKEN"), "bearer token")
	cmd.Flags().StringVar(&remoteFlags.secret, "secret", "", "sign a token with this shared secret instead of --token")
	return cmd
}
