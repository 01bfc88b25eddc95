package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/providers"
)

var picturesCmd = &cobra.Command{
	Use:   "pictures <chapter-url>",
	Short: "Print the page images of a chapter in reading order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		p, err := a.resolve(args[0])
		if err != nil {
			return err
		}

		ch, err := p.GetPictures(cmd.Context(), providers.MangaChapter{Source: p, URL: args[0]})
		if err != nil {
			return err
		}

		for _, u := range ch.Pictures {
			fmt.Println(u)
		}
		return nil
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <url>",
	Short: "Tell which site handles a URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		p, err := a.reg.Resolve(args[0])
		if err != nil {
			fmt.Println("unsupported")
			return nil
		}

		fmt.Println(p.Name())
		return nil
	},
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the supported sites",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		t := newTable("Site", "Base URL")
		for _, p := range a.reg.Providers() {
			t.Row(p.Name(), p.BaseURL())
		}
		printTable(t)

		if len(a.cfg.DisabledSites) > 0 {
			fmt.Println(dimStyle.Render(fmt.Sprintf("disabled: %v", a.cfg.DisabledSites)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(picturesCmd, resolveCmd, sitesCmd)
}
