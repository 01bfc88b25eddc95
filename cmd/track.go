package cmd

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/store"
)

var flagTrackName string

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Manage the series checked for new chapters",
}

var trackAddCmd = &cobra.Command{
	Use:   "add <series-url>",
	Short: "Track a series, starting from its newest chapter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(config.Options{})
		if err != nil {
			return err
		}

		url := args[0]
		p, err := a.resolve(url)
		if err != nil {
			return err
		}

		name := flagTrackName
		if name == "" {
			name = nameFromURL(url)
		}

		ctx := cmd.Context()

		var ser store.Series
		for ch := range p.IterChapters(ctx, url, name) {
			ser = store.Series{URL: url, Name: name, Site: p.Name(), ChapterURL: ch.URL, ChapterName: ch.Name}
			break
		}
		if ser.ChapterURL == "" {
			return fmt.Errorf("%s: no chapters found, nothing to track", url)
		}

		st, err := a.openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Track(ctx, ser); err != nil {
			return err
		}

		fmt.Printf("Tracking %s on %s (last chapter: %s)\n", ser.Name, ser.Site, ser.ChapterName)
		return nil
	},
}

var trackListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show tracked series",
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

		list, err := st.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("Nothing tracked yet, see `mangawatch track add`.")
			return nil
		}

		t := newTable("Name", "Site", "Last chapter", "Checked", "URL")
		for _, s := range list {
			checked := "never"
			if !s.LastChecked.IsZero() {
				checked = s.LastChecked.Local().Format("2006-01-02 15:04")
			}
			t.Row(truncate(s.Name, 32), s.Site, truncate(s.ChapterName, 20), checked, s.URL)
		}
		printTable(t)

		return nil
	},
}

var trackRemoveCmd = &cobra.Command{
	Use:   "remove <series-url>",
	Short: "Stop tracking a series",
	Args:  cobra.ExactArgs(1),
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

		if err := st.Untrack(cmd.Context(), args[0]); err != nil {
			return err
		}

		fmt.Println("Removed", args[0])
		return nil
	},
}

// nameFromURL turns ".../webtoon/solo-leveling/" into "solo leveling".
func nameFromURL(u string) string {
	base := path.Base(strings.TrimRight(u, "/"))
	return strings.Join(strings.FieldsFunc(base, func(r rune) bool { return r == '-' || r == '_' }), " ")
}

func init() {
	trackAddCmd.Flags().StringVar(&flagTrackName, "name", "", "display name of the series")

	trackCmd.AddCommand(trackAddCmd, trackListCmd, trackRemoveCmd)
	rootCmd.AddCommand(trackCmd)
}
