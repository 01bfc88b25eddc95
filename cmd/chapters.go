package cmd

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/providers"
)

var (
	flagChaptersPage int
	flagChaptersAll  bool
	flagRange        string
	flagList         string
)

var chaptersCmd = &cobra.Command{
	Use:   "chapters <series-url>",
	Short: "List the chapters of a series, newest first as the site lists them",
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

		ctx := cmd.Context()
		card := providers.MangaCard{Source: p, URL: args[0]}

		var chs []providers.MangaChapter
		offset := 0

		if flagChaptersAll || flagRange != "" || flagList != "" {
			chs = providers.Select(slices.Collect(p.IterChapters(ctx, card.URL, card.Name)), "", flagRange, flagList)
		} else {
			if chs, err = p.GetChapters(ctx, card, flagChaptersPage); err != nil {
				return err
			}
			offset = (flagChaptersPage - 1) * providers.ChapterPageSize(p)
		}

		if len(chs) == 0 {
			fmt.Println("No chapters found.")
			return nil
		}

		printChapters(chs, offset)
		return nil
	},
}

// printChapters numbers rows from offset+1 so positions match --range and
// --list when a single page is shown.
func printChapters(chs []providers.MangaChapter, offset int) {
	t := newTable("#", "Chapter", "URL")
	for i, c := range chs {
		t.Row(strconv.Itoa(offset+i+1), truncate(c.Name, 40), c.URL)
	}
	printTable(t)
}

func init() {
	chaptersCmd.Flags().IntVar(&flagChaptersPage, "page", 1, "page of chapters to show")
	chaptersCmd.Flags().BoolVar(&flagChaptersAll, "all", false, "show every chapter")
	chaptersCmd.Flags().StringVar(&flagRange, "range", "", "chapters by position (e.g. 1-10)")
	chaptersCmd.Flags().StringVar(&flagList, "list", "", "chapters by position (e.g. 1,3,5)")
	chaptersCmd.MarkFlagsMutuallyExclusive("page", "all")

	rootCmd.AddCommand(chaptersCmd)
}
