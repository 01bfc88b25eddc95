// Package watch runs update checks over the tracked series, once or on a
// schedule.
package watch

import (
	"context"
	"fmt"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

// Tracker is the baseline store a Checker reads and advances.
type Tracker interface {
	Baseline(ctx context.Context) ([]providers.LastChapter, error)
	Advance(ctx context.Context, seriesURL, chapterURL, chapterName string) error
	MarkChecked(ctx context.Context, seriesURLs []string) error
}

// NewChapter is the chapter an updated series was advanced to.
type NewChapter struct {
	SeriesURL   string
	SeriesName  string
	ChapterURL  string
	ChapterName string
}

type Result struct {
	providers.UpdateReport
	New []NewChapter
}

type Checker struct {
	reg   *providers.Registry
	store Tracker
	log   providers.Logger
}

func NewChecker(reg *providers.Registry, store Tracker, log providers.Logger) *Checker {
	if log == nil {
		log = providers.NopLogger
	}

	return &Checker{reg: reg, store: store, log: log}
}

// Check runs one pass: it asks every site about its tracked series and moves
// the baseline of updated series to their newest chapter. Series of a site
// that failed keep their baseline and will be checked again next pass.
func (c *Checker) Check(ctx context.Context) (Result, error) {
	baseline, err := c.store.Baseline(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load baseline: %w", err)
	}

	res := Result{UpdateReport: c.reg.CheckAll(ctx, baseline), New: []NewChapter{}}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	names := make(map[string]string, len(baseline))
	previous := make(map[string]string, len(baseline))
	for _, lc := range baseline {
		if _, ok := names[lc.URL]; !ok {
			names[lc.URL] = lc.Name
			previous[lc.URL] = lc.ChapterURL
		}
	}

	for _, u := range res.Updated {
		nc, ok := c.newest(ctx, u, names[u])
		if !ok || nc.ChapterURL == previous[u] {
			continue
		}

		if err := c.store.Advance(ctx, u, nc.ChapterURL, nc.ChapterName); err != nil {
			return res, fmt.Errorf("advance %s: %w", u, err)
		}
		res.New = append(res.New, nc)
	}

	if err := c.store.MarkChecked(ctx, res.NotUpdated); err != nil {
		return res, fmt.Errorf("mark checked: %w", err)
	}

	c.log.Infof("check done: %d updated, %d not updated, %d unsupported, %d sites failed",
		len(res.Updated), len(res.NotUpdated), len(res.Unsupported), len(res.Failed))

	return res, nil
}

// newest takes the first chapter the site lists for a series.
func (c *Checker) newest(ctx context.Context, seriesURL, name string) (NewChapter, bool) {
	p, err := c.reg.Resolve(seriesURL)
	if err != nil {
		return NewChapter{}, false
	}

	for ch := range p.IterChapters(ctx, seriesURL, name) {
		return NewChapter{
			SeriesURL:   seriesURL,
			SeriesName:  name,
			ChapterURL:  ch.URL,
			ChapterName: ch.Name,
		}, true
	}

	c.log.Warnf("%s: updated but no chapters listed, baseline kept", seriesURL)

	return NewChapter{}, false
}
