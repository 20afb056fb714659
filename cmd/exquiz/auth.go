package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/client"
	"golang.org/x/term"
)

func newLoginCmd(g *globals) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token after checking it with the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(os.Stderr, "Token: ")
				raw, err := term.ReadPassword(int(os.Stdin.Fd()))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(string(raw))
			}
			if token == "" {
				return errors.New("token is required")
			}

			url := g.baseURL()
			me, err := client.New(url, token).Me(cmd.Context())
			if err != nil {
				return err
			}

			creds := &client.Credentials{APIURL: url, Token: token, UserID: me.UserID, Name: me.Name}
			if err := client.SaveCredentials(g.credsPath, creds); err != nil {
				return err
			}
			g.log.Debug().Str("path", g.credsPath).Msg("Credentials saved")

			who := me.Name
			if who == "" {
				who = fmt.Sprintf("user %d", me.UserID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", who)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token (prompted when omitted)")
	return cmd
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token and forget it",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := g.session()
			if errors.Is(err, client.ErrNotLoggedIn) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}

			// The local file goes away even if the server is unreachable.
			if err := api.Logout(cmd.Context()); err != nil {
				g.log.Warn().Err(err).Msg("Server-side logout failed")
			}
			if err := client.ClearCredentials(g.credsPath); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
