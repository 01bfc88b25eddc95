package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/providers"
)

var (
	flagSearchSite string
	flagSearchPage int
	flagSearchPick bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search every site, or one with --site. Without a query the latest series are listed",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		query := strings.Join(args, " ")

		cards, err := a.search(ctx, query)
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			fmt.Println("No results found.")
			return nil
		}

		t := newTable("#", "Site", "Name", "URL")
		for i, c := range cards {
			t.Row(strconv.Itoa(i+1), c.Source.Name(), truncate(c.Name, 48), c.URL)
		}
		printTable(t)

		if !flagSearchPick {
			return nil
		}

		card, err := pickCard(cards)
		if err != nil {
			return err
		}

		chs, err := card.Source.GetChapters(ctx, card, 1)
		if err != nil {
			return err
		}

		fmt.Printf("\n%s\n", card.Name)
		printChapters(chs, 0)

		return nil
	},
}

func (a *app) search(ctx context.Context, query string) ([]providers.MangaCard, error) {
	if flagSearchSite != "" {
		p, ok := a.reg.Get(flagSearchSite)
		if !ok {
			return nil, fmt.Errorf("unknown site %q, see `mangawatch sites`", flagSearchSite)
		}

		return p.Search(ctx, query, flagSearchPage)
	}

	var cards []providers.MangaCard
	for _, r := range a.reg.SearchAll(ctx, query, flagSearchPage) {
		if r.Err != nil {
			a.log.Warnf("%s: search failed, results incomplete", r.Site)
		}
		cards = append(cards, r.Cards...)
	}

	return cards, nil
}

func pickCard(cards []providers.MangaCard) (providers.MangaCard, error) {
	items := make([]string, len(cards))
	for i, c := range cards {
		items[i] = fmt.Sprintf("%s  (%s)", c.Name, c.Source.Name())
	}

	prompt := promptui.Select{
		Label: "Select series",
		Items: items,
		Size:  12,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return providers.MangaCard{}, errors.New("selection cancelled")
	}

	return cards[idx], nil
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchSite, "site", "", "search only this site")
	searchCmd.Flags().IntVar(&flagSearchPage, "page", 1, "result page")
	searchCmd.Flags().BoolVar(&flagSearchPick, "pick", false, "choose a result and list its chapters")

	rootCmd.AddCommand(searchCmd)
}
