package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/watch"
)

var flagSchedule string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check tracked series for new chapters once",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		res, err := watch.NewChecker(a.reg, st, a.log).Check(cmd.Context())
		printResult(res)

		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Check tracked series now and then on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{Schedule: flagSchedule})
		if err != nil {
			return err
		}

		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()

		checker := watch.NewChecker(a.reg, st, a.log)

		return watch.Run(cmd.Context(), a.cfg.Schedule, a.log, func(ctx context.Context) {
			res, err := checker.Check(ctx)
			if err != nil {
				a.log.Errorf("check: %v", err)
			}
			printResult(res)
		})
	},
}

func printResult(res watch.Result) {
	if len(res.New) > 0 {
		t := newTable("Series", "New chapter", "URL")
		for _, n := range res.New {
			t.Row(truncate(n.SeriesName, 32), n.ChapterName, n.ChapterURL)
		}
		printTable(t)
	}

	fmt.Printf("%d updated, %d not updated\n", len(res.Updated), len(res.NotUpdated))

	for _, u := range res.Unsupported {
		fmt.Println(dimStyle.Render("unsupported site: " + u))
	}
	for site, err := range res.Failed {
		fmt.Println(dimStyle.Render(fmt.Sprintf("%s failed: %v", site, err)))
	}
}

func init() {
	watchCmd.Flags().StringVar(&flagSchedule, "schedule", "", "cron spec or @every interval (default from config)")

	rootCmd.AddCommand(checkCmd, watchCmd)
}
