package providers

import (
	"context"
	"iter"
	"slices"
	"strings"
)

// fakeProvider owns every URL starting with base. Unset funcs return empty
// results.
type fakeProvider struct {
	name string
	base string

	searchFunc  func(query string, page int) ([]MangaCard, error)
	updatesFunc func(baseline []LastChapter) ([]string, []string, error)
}

func (f *fakeProvider) Name() string    { return f.name }
func (f *fakeProvider) BaseURL() string { return f.base }

func (f *fakeProvider) OwnsURL(url string) bool {
	return strings.HasPrefix(url, f.base)
}

func (f *fakeProvider) Search(_ context.Context, query string, page int) ([]MangaCard, error) {
	if f.searchFunc != nil {
		return f.searchFunc(query, page)
	}
	return []MangaCard{}, nil
}

func (f *fakeProvider) GetChapters(context.Context, MangaCard, int) ([]MangaChapter, error) {
	return []MangaChapter{}, nil
}

func (f *fakeProvider) IterChapters(context.Context, string, string) iter.Seq[MangaChapter] {
	return slices.Values([]MangaChapter{})
}

func (f *fakeProvider) PicturesFromChapter([]byte) ([]string, error) {
	return []string{}, nil
}

func (f *fakeProvider) GetPictures(_ context.Context, ch MangaChapter) (MangaChapter, error) {
	return ch, nil
}

func (f *fakeProvider) CheckUpdates(_ context.Context, baseline []LastChapter) ([]string, []string, error) {
	if f.updatesFunc != nil {
		return f.updatesFunc(baseline)
	}
	updated, notUpdated := DetectUpdates(nil, baseline)
	return updated, notUpdated, nil
}

// detect builds an updatesFunc that compares the baseline against current.
func detect(current map[string]string) func([]LastChapter) ([]string, []string, error) {
	return func(baseline []LastChapter) ([]string, []string, error) {
		updated, notUpdated := DetectUpdates(current, baseline)
		return updated, notUpdated, nil
	}
}
