package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"checkout/internal/client"
)

var Version = "dev"

type globalOptions struct {
	apiURL   string
	timeout  time.Duration
	logLevel string
}

func main() {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "checkout",
		Short:   "Terminal checkout against the payment relay",
		Version: Version,
	}
	rootCmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("CHECKOUT_API", "http://localhost:5000"), "relay base URL")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 20*time.Second, "per-request timeout")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level")

	rootCmd.AddCommand(payCmd(opts))
	rootCmd.AddCommand(statusCmd(opts))
	rootCmd.AddCommand(otpCmd(opts))
	rootCmd.AddCommand(banksCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.apiURL, o.timeout)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
