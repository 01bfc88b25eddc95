package providers

import (
	"context"
	"iter"
)

// DefaultChapterPageSize is the page size used by GetChapters when a site
// does not configure its own.
const DefaultChapterPageSize = 20

// ChapterPageSize reports how many chapters one GetChapters page of p holds.
func ChapterPageSize(p Provider) int {
	if ps, ok := p.(interface{ PageSize() int }); ok && ps.PageSize() > 0 {
		return ps.PageSize()
	}
	return DefaultChapterPageSize
}

// Provider is implemented once per supported website.
//
// Every operation that talks to the site degrades to an empty result on
// failure and reports why through the returned error, so a caller working
// across many sites can ignore the error and keep going.
type Provider interface {
	// Name is the short, unique site identifier (e.g. "manhwa18").
	Name() string
	// BaseURL is the absolute root URL of the site.
	BaseURL() string

	// Search returns one page (1-indexed) of series matching query. An empty
	// query pages through the site's default listing. No match is an empty
	// slice and a nil error.
	Search(ctx context.Context, query string, page int) ([]MangaCard, error)

	// GetChapters returns the chapters [(page-1)*size, page*size) of a series.
	GetChapters(ctx context.Context, card MangaCard, page int) ([]MangaChapter, error)

	// IterChapters lazily yields every chapter of a series. Each range over
	// the returned sequence fetches the site again.
	IterChapters(ctx context.Context, seriesURL, seriesName string) iter.Seq[MangaChapter]

	// PicturesFromChapter extracts the ordered image URLs from a fetched
	// chapter page.
	PicturesFromChapter(content []byte) ([]string, error)

	// GetPictures fetches the chapter page and returns the chapter with its
	// pictures populated.
	GetPictures(ctx context.Context, chapter MangaChapter) (MangaChapter, error)

	// OwnsURL reports whether url belongs to this site. It never touches the
	// network.
	OwnsURL(url string) bool

	// CheckUpdates partitions the baseline series URLs into updated and not
	// updated using the site's recent-updates page.
	CheckUpdates(ctx context.Context, baseline []LastChapter) (updated, notUpdated []string, err error)
}

// Logger is the observability hook used by providers. ui.Logger satisfies it.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any) {}
func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Warnf(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// NopLogger discards everything.
var NopLogger Logger = nopLogger{}

// Fetcher retrieves raw pages. Timeouts, retries and connection reuse are
// its business; a failure is reported as *FetchError.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error)
}

// FetcherFunc adapts a plain function to Fetcher.
type FetcherFunc func(ctx context.Context, url string, headers map[string]string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	return f(ctx, url, headers)
}
