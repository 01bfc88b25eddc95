package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	flagIgnoreConfig bool
	flagDebug        bool
	flagEnvFile      string

	flagUserAgent  string
	flagCookie     string
	flagCookieFile string
	flagCloudflare bool
	flagDatabase   string
)

var rootCmd = &cobra.Command{
	Use:           "mangawatch",
	Short:         "Search manga sites, track series and get told about new chapters",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.BoolVar(&flagDebug, "debug", false, "enable debug logging")
	pf.BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config and use only CLI flags")
	pf.StringVar(&flagEnvFile, "env-file", ".env", "file with MANGAWATCH_* variables")

	pf.StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	pf.StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	pf.StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	pf.BoolVar(&flagCloudflare, "cloudflare", false, "shape requests to get past Cloudflare's browser check")
	pf.StringVar(&flagDatabase, "database", "", "path of the tracking database")
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
