package cmd

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/brogergvhs/mangawatch/internal/config"
	"github.com/brogergvhs/mangawatch/internal/downloader"
	"github.com/brogergvhs/mangawatch/internal/fetch"
	"github.com/brogergvhs/mangawatch/internal/providers"
	"github.com/brogergvhs/mangawatch/internal/ui"
	"github.com/brogergvhs/mangawatch/internal/util"
)

var (
	flagOutput         string
	flagImageWorkers   int
	flagChapterWorkers int
	flagSkipBroken     bool
	flagKeepFolders    bool
	flagDryRun         bool
)

var downloadCmd = &cobra.Command{
	Use:   "download <chapter-url>... | download <series-url> --range a-b | --list 1,3",
	Short: "Download chapters as CBZ files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownload,
}

func runDownload(cmd *cobra.Command, args []string) error {
	a, err := setup(config.Options{
		Output:       flagOutput,
		ImageWorkers: flagImageWorkers,
		SkipBroken:   flagSkipBroken,
		KeepFolders:  flagKeepFolders,
	})
	if err != nil {
		return err
	}

	ctx, cancel := util.InterruptContext(cmd.Context(), a.cfg.Output, a.log.Infof)
	defer cancel()

	selected, err := a.selectChapters(cmd, args)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		return errors.New("no chapters selected")
	}

	if flagDryRun {
		fmt.Printf("Dry-run: %d chapters selected.\n", len(selected))
		printChapters(selected, 0)
		return nil
	}

	if err := os.MkdirAll(a.cfg.Output, 0o755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}

	dl := downloader.New(a.fetcher.HTTPClient(), downloader.Options{
		UserAgent:  fetch.PickUserAgent(a.cfg.UserAgent),
		Workers:    a.cfg.ImageWorkers,
		SkipBroken: a.cfg.SkipBroken,
		KeepFolder: a.cfg.KeepFolders,
		Log:        a.log,
	})

	progress := ui.NewProgress(os.Stdout)
	stats := &ui.Stats{}
	start := time.Now()

	var g errgroup.Group
	g.SetLimit(max(1, flagChapterWorkers))

	for _, ch := range selected {
		g.Go(func() error {
			bar := progress.Chapter(chapterLabel(ch))

			full, err := ch.Source.GetPictures(ctx, ch)
			if err != nil {
				bar.Finish(err)
				providers.LogFailure(a.log, ch.Source.Name(), "pictures of "+ch.URL, err)
				stats.Add(0, 0, err)
				return nil
			}

			res, err := dl.Chapter(ctx, full, a.cfg.Output, bar)
			switch {
			case errors.Is(err, downloader.ErrExists):
				a.log.Infof("skipped: %v", err)
				return nil
			case err != nil:
				a.log.Errorf("%s: %v", chapterLabel(ch), err)
			}
			stats.Add(res.Pages, res.Bytes, err)

			return nil
		})
	}
	_ = g.Wait()
	progress.Wait()

	fmt.Println()
	fmt.Println("Download summary:", stats.Summary(time.Since(start)))

	return ctx.Err()
}

// selectChapters reads chapter URLs from args, or picks chapters of the
// series in args[0] when --range or --list is given.
func (a *app) selectChapters(cmd *cobra.Command, args []string) ([]providers.MangaChapter, error) {
	if flagRange == "" && flagList == "" {
		out := make([]providers.MangaChapter, 0, len(args))
		for _, u := range args {
			p, err := a.resolve(u)
			if err != nil {
				return nil, err
			}
			out = append(out, providers.MangaChapter{Source: p, URL: u})
		}
		return out, nil
	}

	if len(args) != 1 {
		return nil, errors.New("--range and --list take a single series URL")
	}

	p, err := a.resolve(args[0])
	if err != nil {
		return nil, err
	}

	all := slices.Collect(p.IterChapters(cmd.Context(), args[0], nameFromURL(args[0])))
	a.log.Debugf("%d chapters listed", len(all))

	return providers.Select(all, "", flagRange, flagList), nil
}

func chapterLabel(ch providers.MangaChapter) string {
	if ch.Name != "" {
		return ch.Name
	}

	return truncate(ch.URL, 40)
}

func init() {
	f := downloadCmd.Flags()

	f.StringVar(&flagRange, "range", "", "chapters by position (e.g. 1-10)")
	f.StringVar(&flagList, "list", "", "chapters by position (e.g. 1,3,5)")
	f.StringVar(&flagOutput, "output", "", "output folder for CBZ files")
	f.IntVar(&flagImageWorkers, "image-workers", 0, "parallel image downloads per chapter")
	f.IntVar(&flagChapterWorkers, "chapter-workers", 2, "parallel chapter downloads")
	f.BoolVar(&flagSkipBroken, "skip-broken", false, "skip failed images instead of failing the whole chapter")
	f.BoolVar(&flagKeepFolders, "keep-folders", false, "keep temporary folders")
	f.BoolVar(&flagDryRun, "dry-run", false, "show what would be downloaded, don't download")

	rootCmd.AddCommand(downloadCmd)
}
