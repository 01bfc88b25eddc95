package ui

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/brogergvhs/mangawatch/internal/util"
)

// Progress renders one bar per downloaded chapter.
type Progress struct {
	p *mpb.Progress
}

func NewProgress(w io.Writer) *Progress {
	return &Progress{p: mpb.New(
		mpb.WithWidth(48),
		mpb.WithOutput(w),
		mpb.WithRefreshRate(120*time.Millisecond),
	)}
}

// Wait blocks until every bar has completed.
func (pr *Progress) Wait() {
	pr.p.Wait()
}

func (pr *Progress) Chapter(name string) *ChapterBar {
	b := &ChapterBar{start: time.Now()}

	b.bar = pr.p.New(0,
		mpb.BarStyle().Rbound("]"),
		mpb.PrependDecorators(decor.Name(name+"  ")),
		mpb.AppendDecorators(
			decor.CountersNoUnit(" %d/%d pages", decor.WCSyncWidth),
			decor.Any(func(decor.Statistics) string {
				return " | " + util.Human(b.bytes.Load())
			}),
			decor.Any(func(decor.Statistics) string {
				if b.failed.Load() {
					return " | failed"
				}
				return fmt.Sprintf(" | %ds", b.seconds())
			}),
		),
	)

	return b
}

// ChapterBar tracks pages and bytes of one chapter. Methods are safe for
// concurrent use and become no-ops once Finish was called.
type ChapterBar struct {
	bar   *mpb.Bar
	start time.Time

	total   atomic.Int64
	bytes   atomic.Int64
	elapsed atomic.Int64

	done   atomic.Bool
	failed atomic.Bool
}

func (b *ChapterBar) seconds() int64 {
	if b.done.Load() {
		return b.elapsed.Load()
	}

	return int64(time.Since(b.start).Seconds())
}

func (b *ChapterBar) Update(pages, total int, bytes int64) {
	if b == nil || b.done.Load() {
		return
	}

	if total > 0 && int64(total) != b.total.Load() {
		b.total.Store(int64(total))
		b.bar.SetTotal(int64(total), false)
	}

	b.bytes.Store(bytes)
	b.bar.SetCurrent(int64(pages))
}

// Finish completes the bar. A non-nil err marks the chapter as failed.
func (b *ChapterBar) Finish(err error) {
	if b == nil || b.done.Swap(true) {
		return
	}

	b.elapsed.Store(int64(time.Since(b.start).Seconds()))
	if err != nil {
		b.failed.Store(true)
		b.bar.Abort(false)
		return
	}

	b.bar.SetCurrent(b.total.Load())
	b.bar.SetTotal(b.total.Load(), true)
}
