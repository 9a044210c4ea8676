// Command luxdrive is a terminal client for the LuxDrive booking API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"luxdrive/pkg/client"
)

var (
	apiURL      string
	sessionPath string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "luxdrive",
	Short:         "Book and track LuxDrive rentals from the terminal",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("LUXDRIVE_API", client.DefaultBaseURL), "base URL of the LuxDrive API")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session", os.Getenv("LUXDRIVE_SESSION"), "session file (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log client diagnostics to stderr")

	rootCmd.AddCommand(signUpCmd, signInCmd, signOutCmd, whoAmICmd)
	rootCmd.AddCommand(carsCmd, bookCmd, bookingsCmd, cancelCmd, trackCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// openSession builds the API client and restores the stored session.
func openSession() (*client.Client, *client.Session, error) {
	path := sessionPath
	if path == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return nil, nil, err
		}
		path = p
	}

	logger := zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}

	c := client.New(apiURL)
	return c, client.NewSession(c, client.NewSessionStore(path), logger), nil
}
