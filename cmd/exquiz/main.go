package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/stemsi/exquiz-backend/internal/client"
	"github.com/stemsi/exquiz-backend/internal/logger"
)

const defaultAPIURL = "http://localhost:8080"

// exquiz is the terminal client: log in with a token, take a timed test,
// browse history and download reports.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globals struct {
	apiURL    string
	credsPath string
	logLevel  string
	log       zerolog.Logger
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:          "exquiz",
		Short:        "Take timed practice tests from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			g.log = logger.New(os.Stderr, g.logLevel, "pretty")
			if g.credsPath == "" {
				p, err := client.DefaultCredentialsPath()
				if err != nil {
					return err
				}
				g.credsPath = p
			}
			return nil
		},
	}

	apiURL := os.Getenv("EXQUIZ_API_URL")
	cmd.PersistentFlags().StringVar(&g.apiURL, "api-url", apiURL, "server base URL (env EXQUIZ_API_URL)")
	cmd.PersistentFlags().StringVar(&g.credsPath, "credentials", "", "credentials file (default ~/.config/exquiz/credentials.yaml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(
		newLoginCmd(g),
		newLogoutCmd(g),
		newClassesCmd(g),
		newSubjectsCmd(g),
		newSetsCmd(g),
		newTakeCmd(g),
		newHistoryCmd(g),
		newReportCmd(g),
		newRankingsCmd(g),
	)
	return cmd
}

// session loads the stored credentials and builds an authenticated client.
// An explicit --api-url wins over the URL saved at login.
func (g *globals) session() (*client.Client, *client.Credentials, error) {
	creds, err := client.LoadCredentials(g.credsPath)
	if err != nil {
		return nil, nil, err
	}
	url := g.apiURL
	if url == "" {
		url = creds.APIURL
	}
	if url == "" {
		url = defaultAPIURL
	}
	return client.New(url, creds.Token), creds, nil
}

func (g *globals) baseURL() string {
	if g.apiURL != "" {
		return g.apiURL
	}
	return defaultAPIURL
}
