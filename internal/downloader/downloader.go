// Package downloader fetches the pages of a chapter and packs them into a
// CBZ archive.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/brogergvhs/mangawatch/internal/chapters"
	"github.com/brogergvhs/mangawatch/internal/providers"
	"github.com/brogergvhs/mangawatch/internal/util"
)

// ErrExists is returned when the chapter archive is already on disk.
var ErrExists = errors.New("chapter already downloaded")

// Progress receives page and byte counts of one chapter.
type Progress interface {
	Update(pages, total int, bytes int64)
	Finish(err error)
}

type nopProgress struct{}

func (nopProgress) Update(int, int, int64) {}
func (nopProgress) Finish(error)           {}

type Options struct {
	UserAgent  string
	Workers    int
	Attempts   int
	RetryWait  time.Duration
	SkipBroken bool
	KeepFolder bool
	Log        providers.Logger
}

type Downloader struct {
	client *http.Client
	opts   Options
	log    providers.Logger
}

func New(c *http.Client, opts Options) *Downloader {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Attempts < 1 {
		opts.Attempts = 3
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = time.Second
	}

	log := opts.Log
	if log == nil {
		log = providers.NopLogger
	}

	return &Downloader{client: c, opts: opts, log: log}
}

type Result struct {
	Path  string
	Pages int
	Bytes int64
}

// Chapter downloads the pictures of ch into outDir and writes the CBZ.
// ch.Pictures must already be extracted.
func (d *Downloader) Chapter(ctx context.Context, ch providers.MangaChapter, outDir string, prog Progress) (res Result, err error) {
	if prog == nil {
		prog = nopProgress{}
	}
	defer func() { prog.Finish(err) }()

	files := chapters.Files{MangaChapter: ch}
	res.Path = files.CBZPath(outDir)

	if _, err := os.Stat(res.Path); err == nil {
		return res, fmt.Errorf("%s: %w", res.Path, ErrExists)
	}
	if len(ch.Pictures) == 0 {
		return res, fmt.Errorf("%s: no pictures to download", ch.URL)
	}

	folder := files.TempDir(outDir)

	pages, bytes, err := d.pictures(ctx, ch.Pictures, folder, ch.URL, prog)
	res.Bytes = bytes
	if err != nil {
		return res, err
	}

	if err := util.CreateCBZ(pages, files.ComicInfo(), res.Path); err != nil {
		return res, err
	}
	res.Pages = len(pages)

	if !d.opts.KeepFolder {
		_ = os.RemoveAll(folder)
	}

	d.log.Debugf("%s: %d pages, %s", res.Path, res.Pages, util.Human(res.Bytes))

	return res, nil
}

type chapterState struct {
	mu    sync.Mutex
	done  int
	total int
	bytes int64
	files []string
	errs  []error
}

func (d *Downloader) pictures(ctx context.Context, urls []string, folder, referer string, prog Progress) ([]string, int64, error) {
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, 0, err
	}

	cs := &chapterState{total: len(urls)}
	prog.Update(0, cs.total, 0)

	finish := func(file string, err error) {
		cs.mu.Lock()
		defer cs.mu.Unlock()

		cs.done++
		if err != nil {
			cs.errs = append(cs.errs, err)
		} else if file != "" {
			cs.files = append(cs.files, file)
		}
		prog.Update(cs.done, cs.total, cs.bytes)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup

	for range min(d.opts.Workers, max(1, len(urls))) {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range jobs {
				u := urls[i]

				// animated gifs on reader pages are banners
				if strings.HasSuffix(strings.ToLower(u), ".gif") {
					finish("", nil)
					continue
				}

				ext := path.Ext(strings.SplitN(u, "?", 2)[0])
				if ext == "" || len(ext) > 5 {
					ext = ".jpg"
				}
				file := filepath.Join(folder, fmt.Sprintf("page_%03d%s", i+1, ext))

				var last int64
				progress := func(done int64) {
					cs.mu.Lock()
					cs.bytes += done - last
					last = done
					prog.Update(cs.done, cs.total, cs.bytes)
					cs.mu.Unlock()
				}

				if err := d.withRetry(ctx, u, file, referer, progress); err != nil {
					finish("", fmt.Errorf("page %d: %w", i+1, err))
					continue
				}
				finish(file, nil)
			}
		}()
	}

feed:
	for i := range urls {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return cs.files, cs.bytes, err
	}

	if len(cs.errs) > 0 {
		for _, err := range cs.errs {
			d.log.Warnf("[fetch] %s: %v", referer, err)
		}
		if !d.opts.SkipBroken {
			return cs.files, cs.bytes, fmt.Errorf("failed %d/%d pages (use --skip-broken to continue)", len(cs.errs), cs.total)
		}
	}

	return cs.files, cs.bytes, nil
}

func (d *Downloader) withRetry(ctx context.Context, url, output, referer string, progress func(done int64)) error {
	var err error
	for attempt := 1; attempt <= d.opts.Attempts; attempt++ {
		if err = d.download(ctx, url, output, referer, progress); err == nil {
			return nil
		}
		if attempt == d.opts.Attempts {
			break
		}

		progress(0)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * d.opts.RetryWait):
		}
	}

	return err
}

func (d *Downloader) download(ctx context.Context, url, output, referer string, progress func(done int64)) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Referer", referer)
	req.Header.Set("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if d.opts.UserAgent != "" {
		req.Header.Set("User-Agent", d.opts.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &providers.FetchError{URL: url, Status: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, _ := mime.ParseMediaType(ct); !strings.HasPrefix(mt, "image/") {
			return fmt.Errorf("unexpected content type %s", ct)
		}
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}

	if _, err := copyWithProgress(f, resp.Body, progress); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}
