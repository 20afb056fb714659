package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/config"
	"github.com/stemsi/exquiz-backend/internal/service"
)

// issue-token signs a development token with the server's JWT_SECRET.
// Production tokens come from the identity provider.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		userID int
		name   string
	)

	cmd := &cobra.Command{
		Use:          "issue-token",
		Short:        "Sign a development bearer token",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)

			if userID <= 0 {
				fmt.Fprint(os.Stderr, "Enter User ID: ")
				line, _ := reader.ReadString('\n')
				n, err := strconv.Atoi(strings.TrimSpace(line))
				if err != nil || n <= 0 {
					return fmt.Errorf("user id must be a positive integer")
				}
				userID = n
			}
			if name == "" {
				fmt.Fprint(os.Stderr, "Enter Name (optional): ")
				line, _ := reader.ReadString('\n')
				name = strings.TrimSpace(line)
			}

			auth := service.NewAuthService(config.Load(), nil)
			token, err := auth.GenerateToken(userID, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().IntVar(&userID, "user-id", 0, "user id to embed in the token")
	cmd.Flags().StringVar(&name, "name", "", "display name to embed in the token")
	return cmd
}
