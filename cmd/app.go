package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/fetch"
	"github.com/brogergvhs/mangawatch/internal/providers"
	"github.com/brogergvhs/mangawatch/internal/providers/sites"
	"github.com/brogergvhs/mangawatch/internal/store"
	"github.com/brogergvhs/mangawatch/internal/ui"
)

// app is what every command needs: merged config, logger, fetcher and the
// registry of sites.
type app struct {
	cfg     *config.Config
	used    string
	log     *ui.Logger
	fetcher *fetch.Client
	reg     *providers.Registry
}

func setup(extra config.Options) (*app, error) {
	opts := extra
	opts.IgnoreConfig = flagIgnoreConfig
	opts.EnvFile = flagEnvFile
	opts.Debug = flagDebug
	opts.UserAgent = flagUserAgent
	opts.Cookie = flagCookie
	opts.CookieFile = flagCookieFile
	opts.CloudflareBypass = flagCloudflare
	opts.Database = flagDatabase

	cfg, used, err := config.LoadMerged(opts)
	if err != nil {
		return nil, err
	}

	log := ui.NewLogger(cfg.Debug)
	log.Debugf("config: %s", used)

	client := fetch.New(fetch.Options{
		Timeout:          cfg.Timeout,
		Retries:          cfg.Retries,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		Log:              log,
	})

	ps, err := sites.Build(cfg.SiteRules(), cfg.DisabledSites, client, log)
	if err != nil {
		return nil, err
	}

	reg, err := providers.NewRegistry(log, ps...)
	if err != nil {
		return nil, fmt.Errorf("site configuration: %w", err)
	}
	reg.SetWorkers(cfg.Workers)

	return &app{cfg: cfg, used: used, log: log, fetcher: client, reg: reg}, nil
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	a.log.Debugf("database: %s", a.cfg.Database)
	return store.Open(ctx, a.cfg.Database)
}

// resolve returns the site owning url, reported as unsupported otherwise.
func (a *app) resolve(url string) (providers.Provider, error) {
	p, err := a.reg.Resolve(url)
	if err != nil {
		return nil, fmt.Errorf("unsupported site: %w", err)
	}

	return p, nil
}

var (
	accent = lipgloss.Color("99")

	headerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Align(lipgloss.Center)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func printTable(t *table.Table) {
	fmt.Fprintln(os.Stdout, t)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}
