// Package cmd contains the wallet dashboard app.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/ardanlabs/walletdash/foundation/logger"
	"github.com/ardanlabs/walletdash/foundation/query"
	"github.com/ardanlabs/walletdash/foundation/walletapi"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	baseURL string
	logPath string
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&baseURL, "url", "u", walletapi.DefaultBaseURL, "Url of the wallet API.")
	rootCmd.PersistentFlags().StringVarP(&logPath, "log", "l", "", "Path of the log file, no logging when empty.")
	rootCmd.PersistentFlags().DurationVarP(&timeout, "timeout", "t", 30*time.Second, "Timeout of a call to the wallet API.")
}

var rootCmd = &cobra.Command{
	Use:          "wallet",
	Short:        "Your wallet dashboard",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newLogger constructs the logger for the commands. The terminal is
// kept for the dashboard so logs only go to a file.
func newLogger() (*zap.SugaredLogger, error) {
	if logPath == "" {
		return zap.NewNop().Sugar(), nil
	}

	log, err := logger.New("WALLET", logPath)
	if err != nil {
		return nil, fmt.Errorf("constructing logger: %w", err)
	}

	return log, nil
}

// newClient constructs the wallet API client for the commands.
func newClient(log *zap.SugaredLogger) (*walletapi.Client, error) {
	trace := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	cln, err := walletapi.New(baseURL, walletapi.WithLogger(trace), walletapi.WithTimeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("constructing wallet api client: %w", err)
	}

	return cln, nil
}

// newCache constructs the request cache for the commands.
func newCache() *query.Cache {
	return query.NewCache()
}
