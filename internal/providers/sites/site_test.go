package sites

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brogergvhs/mangawatch/internal/fetch"
	"github.com/brogergvhs/mangawatch/internal/providers"
)

const listingHTML = `<html><body>
<div class="manga-lists">
  <div class="thumb"><a href="/webtoon/solo" title="Solo Leveling"><img data-src="/covers/solo.jpg" src="data:image/gif;base64,AA"></a></div>
  <div class="thumb"><a href="https://test.example/webtoon/omni" title="Omniscient Reader"><img src="/covers/omni.png"></a></div>
  <div class="thumb"><a href="/webtoon/solo" title="Solo Leveling again"></a></div>
  <div class="thumb"><span>no link</span></div>
</div>
</body></html>`

const emptyListingHTML = `<html><body><div class="manga-lists"></div></body></html>`

const updatesHTML = `<html><body>
<div class="utao"><a href="/webtoon/solo">Solo</a><ul><li><a href="/webtoon/solo/chapter-201">201</a></li><li><a href="/webtoon/solo/chapter-200">200</a></li></ul></div>
<div class="utao"><a href="/webtoon/omni">Omni</a><ul><li><a href="/webtoon/omni/chapter-90">90</a></li></ul></div>
<div class="utao"><a href="/webtoon/solo">Solo</a><ul><li><a href="/webtoon/solo/chapter-199">199</a></li></ul></div>
<div class="utao"><a href="/webtoon/broken">Broken</a></div>
</body></html>`

const readerHTML = `<html><body>
<div class="read-content">
  <img data-index="2" src="/img/p2.jpg">
  <img data-index="1" src="/img/p1-300x400.jpg" srcset="/img/p1.jpg 1x">
  <img src="/img/p 3.webp">
  <img src="data:image/gif;base64,AA">
  <img src="/img/tracker.svg">
</div>
<img src="/img/ad.jpg">
</body></html>`

func seriesHTML(n int) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul id="chapterlist">`)
	for i := n; i >= 1; i-- {
		fmt.Fprintf(&b, `<li><a href="/webtoon/solo/chapter-%d"> Chapter  %d </a></li>`, i, i)
	}
	b.WriteString(`</ul></body></html>`)
	return b.String()
}

func testRules(base string) Rules {
	return Rules{
		Name:      "test",
		BaseURL:   base,
		SearchURL: "search?q={query}&page={page}",
		ListURL:   "latest",
		Cards:     CardRules{Container: "div.manga-lists", Item: "div.thumb"},
		Chapters:  ChapterRules{Container: "#chapterlist", Item: "li", TitlePattern: `Chapter (\d+)`, TitleFormat: "C•$1"},
		Updates:   UpdateRules{Item: "div.utao", Chapter: "ul a"},
		Pictures:  PictureRules{Container: "div.read-content"},
	}
}

// pages serves fixtures by path+query; unknown paths are 404.
func pages(t *testing.T, fixtures map[string]string) (providers.Fetcher, *[]string) {
	t.Helper()

	var requested []string
	f := providers.FetcherFunc(func(_ context.Context, url string, _ map[string]string) ([]byte, error) {
		requested = append(requested, url)
		body, ok := fixtures[strings.TrimPrefix(url, "https://test.example")]
		if !ok {
			return nil, &providers.FetchError{URL: url, Status: http.StatusNotFound}
		}
		return []byte(body), nil
	})

	return f, &requested
}

func newTestSite(t *testing.T, fixtures map[string]string) (*Site, *[]string) {
	t.Helper()

	f, requested := pages(t, fixtures)
	s, err := New(testRules("https://test.example"), f, providers.NopLogger)
	require.NoError(t, err)

	return s, requested
}

func TestSite_Search(t *testing.T) {
	s, requested := newTestSite(t, map[string]string{"/search?q=solo+leveling&page=1": listingHTML})

	cards, err := s.Search(context.Background(), "solo leveling", 1)
	require.NoError(t, err)

	require.Len(t, cards, 2)
	assert.Equal(t, "Solo Leveling", cards[0].Name)
	assert.Equal(t, "https://test.example/webtoon/solo", cards[0].URL)
	assert.Equal(t, "https://test.example/covers/solo.jpg", cards[0].PictureURL)
	assert.Equal(t, "https://test.example/webtoon/omni", cards[1].URL)
	assert.Same(t, s, cards[0].Source)
	assert.Equal(t, []string{"https://test.example/search?q=solo+leveling&page=1"}, *requested)
}

func TestSite_SearchEmptyQueryUsesListing(t *testing.T) {
	s, requested := newTestSite(t, map[string]string{"/latest": listingHTML})

	cards, err := s.Search(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Len(t, cards, 2)

	cards, err = s.Search(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Empty(t, cards)
	assert.Len(t, *requested, 1, "single-page listing must not be fetched for page 2")
}

func TestSite_SearchNoMatchIsEmptyNotError(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/search?q=nothing&page=1": emptyListingHTML})

	cards, err := s.Search(context.Background(), "nothing", 1)

	require.NoError(t, err)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
}

func TestSite_SearchDegradesOnFailure(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/search?q=x&page=1": `<html><body><p>redesigned</p></body></html>`})

	cards, err := s.Search(context.Background(), "x", 1)
	assert.Empty(t, cards)
	assert.ErrorIs(t, err, providers.ErrSchemaMismatch)

	cards, err = s.Search(context.Background(), "down", 1)
	assert.Empty(t, cards)
	assert.True(t, providers.IsTransient(err))
}

func TestSite_GetChaptersPaginates(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/webtoon/solo": seriesHTML(45)})
	card := providers.MangaCard{Source: s, Name: "Solo", URL: "https://test.example/webtoon/solo"}

	p1, err := s.GetChapters(context.Background(), card, 1)
	require.NoError(t, err)
	p3, err := s.GetChapters(context.Background(), card, 3)
	require.NoError(t, err)
	p4, err := s.GetChapters(context.Background(), card, 4)
	require.NoError(t, err)

	require.Len(t, p1, 20)
	assert.Equal(t, "C•45", p1[0].Name)
	assert.Equal(t, "https://test.example/webtoon/solo/chapter-45", p1[0].URL)
	assert.Equal(t, card.URL, p1[0].Manga.URL)
	assert.Len(t, p3, 5)
	assert.Empty(t, p4)
}

func TestSite_GetChaptersUsesConfiguredPageSize(t *testing.T) {
	f, _ := pages(t, map[string]string{"/webtoon/solo": seriesHTML(45)})
	rules := testRules("https://test.example")
	rules.PageSize = 25
	s, err := New(rules, f, providers.NopLogger)
	require.NoError(t, err)
	card := providers.MangaCard{Name: "Solo", URL: "https://test.example/webtoon/solo"}

	assert.Equal(t, 25, providers.ChapterPageSize(s))

	p2, err := s.GetChapters(context.Background(), card, 2)
	require.NoError(t, err)
	require.Len(t, p2, 20)
	assert.Equal(t, "C•20", p2[0].Name)

	huge, err := s.GetChapters(context.Background(), card, math.MaxInt)
	require.NoError(t, err)
	assert.Empty(t, huge)
}

func TestSite_PagesMatchIterator(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/webtoon/solo": seriesHTML(45)})
	ctx := context.Background()
	card := providers.MangaCard{Name: "Solo", URL: "https://test.example/webtoon/solo"}

	var paged []string
	for page := 1; page <= 2; page++ {
		chs, err := s.GetChapters(ctx, card, page)
		require.NoError(t, err)
		for _, c := range chs {
			paged = append(paged, c.URL)
		}
	}

	var streamed []string
	for c := range s.IterChapters(ctx, card.URL, card.Name) {
		streamed = append(streamed, c.URL)
	}

	require.Len(t, streamed, 45)
	assert.Equal(t, streamed[:40], paged)
}

func TestSite_IterChaptersRestartsAndStopsEarly(t *testing.T) {
	s, requested := newTestSite(t, map[string]string{"/webtoon/solo": seriesHTML(5)})
	seq := s.IterChapters(context.Background(), "https://test.example/webtoon/solo", "Solo")

	var first []string
	for c := range seq {
		first = append(first, c.Name)
		if len(first) == 2 {
			break
		}
	}
	all := slices.Collect(seq)

	assert.Equal(t, []string{"C•5", "C•4"}, first)
	assert.Len(t, all, 5)
	assert.Len(t, *requested, 2)
}

func TestSite_IterChaptersMissingSeriesIsEmpty(t *testing.T) {
	s, _ := newTestSite(t, nil)

	assert.Empty(t, slices.Collect(s.IterChapters(context.Background(), "https://test.example/gone", "Gone")))
}

func TestSite_PicturesFromChapter(t *testing.T) {
	s, _ := newTestSite(t, nil)

	pics, err := s.PicturesFromChapter([]byte(readerHTML))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://test.example/img/p1.jpg",
		"https://test.example/img/p2.jpg",
		"https://test.example/img/p%203.webp",
	}, pics)
}

func TestSite_PicturesFromChapterSchemaMiss(t *testing.T) {
	s, _ := newTestSite(t, nil)

	pics, err := s.PicturesFromChapter([]byte(`<html><body><div class="reader"><img src="/a.jpg"></div></body></html>`))

	assert.NotNil(t, pics)
	assert.Empty(t, pics)
	assert.ErrorIs(t, err, providers.ErrSchemaMismatch)
}

func TestSite_GetPictures(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/webtoon/solo/chapter-1": readerHTML})
	ch := providers.MangaChapter{Name: "C•1", URL: "https://test.example/webtoon/solo/chapter-1"}

	got, err := s.GetPictures(context.Background(), ch)
	require.NoError(t, err)

	assert.Len(t, got.Pictures, 3)
	assert.Empty(t, ch.Pictures, "input chapter must stay untouched")
	assert.Same(t, s, got.Source)
}

func TestSite_CheckUpdates(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/": updatesHTML})

	updated, notUpdated, err := s.CheckUpdates(context.Background(), []providers.LastChapter{
		{URL: "https://test.example/webtoon/solo", ChapterURL: "https://test.example/webtoon/solo/chapter-200"},
		{URL: "https://test.example/webtoon/omni", ChapterURL: "https://test.example/webtoon/omni/chapter-90"},
		{URL: "https://test.example/webtoon/broken", ChapterURL: "https://test.example/webtoon/broken/chapter-1"},
		{URL: "https://test.example/webtoon/quiet", ChapterURL: "https://test.example/webtoon/quiet/chapter-3"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"https://test.example/webtoon/solo"}, updated)
	assert.Equal(t, []string{
		"https://test.example/webtoon/omni",
		"https://test.example/webtoon/broken",
		"https://test.example/webtoon/quiet",
	}, notUpdated)
}

func TestSite_CheckUpdatesFirstEntryWins(t *testing.T) {
	s, _ := newTestSite(t, map[string]string{"/": updatesHTML})

	current, err := s.latestChapters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"https://test.example/webtoon/solo": "https://test.example/webtoon/solo/chapter-201",
		"https://test.example/webtoon/omni": "https://test.example/webtoon/omni/chapter-90",
	}, current)
}

func TestSite_CheckUpdatesChapterFollowsSeriesLink(t *testing.T) {
	const page = `<html><body>
<div class="bs"><h3 class="tt mycover"><a href="/webtoon/solo">Solo</a></h3><a href="/webtoon/solo/chapter-201">201</a><a href="/webtoon/solo/chapter-200">200</a></div>
<div class="bs"><h3 class="tt mycover"><a href="/webtoon/omni">Omni</a></h3><span><a href="/webtoon/omni/chapter-90">90</a></span></div>
<div class="bs"><h3 class="tt mycover"><a href="/webtoon/solo">Solo</a></h3><a href="/webtoon/solo/chapter-199">199</a></div>
<h3 class="tt mycover"><span>no link</span></h3>
</body></html>`

	var manhwahub Rules
	for _, r := range Builtin() {
		if r.Name == "manhwahub" {
			manhwahub = r
		}
	}
	require.True(t, manhwahub.Updates.ChapterFollows)

	f, _ := pages(t, map[string]string{"/": page})
	rules := testRules("https://test.example")
	rules.Updates = manhwahub.Updates
	s, err := New(rules, f, providers.NopLogger)
	require.NoError(t, err)

	current, err := s.latestChapters(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"https://test.example/webtoon/solo": "https://test.example/webtoon/solo/chapter-201",
		"https://test.example/webtoon/omni": "https://test.example/webtoon/omni/chapter-90",
	}, current)
}

func TestSite_CheckUpdatesDegradesWhenSiteIsDown(t *testing.T) {
	s, _ := newTestSite(t, nil)

	updated, notUpdated, err := s.CheckUpdates(context.Background(), []providers.LastChapter{
		{URL: "https://test.example/webtoon/solo", ChapterURL: "c"},
	})

	assert.True(t, providers.IsTransient(err))
	assert.Empty(t, updated)
	assert.Equal(t, []string{"https://test.example/webtoon/solo"}, notUpdated)
}

func TestSite_CheckUpdatesEmptyBaselineFetchesNothing(t *testing.T) {
	s, requested := newTestSite(t, map[string]string{"/": updatesHTML})

	updated, notUpdated, err := s.CheckUpdates(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, updated)
	assert.Empty(t, notUpdated)
	assert.Empty(t, *requested)
}

func TestSite_OwnsURL(t *testing.T) {
	s, _ := newTestSite(t, nil)

	tests := []struct {
		url  string
		want bool
	}{
		{"https://test.example/webtoon/solo", true},
		{"http://www.test.example/", true},
		{"https://TEST.example", true},
		{"https://test.example.evil.com/webtoon", false},
		{"https://other.example/webtoon", false},
		{"ftp://test.example/file", false},
		{"not a url", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, s.OwnsURL(tt.url), tt.url)
		assert.Equal(t, s.OwnsURL(tt.url), s.OwnsURL(tt.url), "pure")
	}
}

func TestSite_OverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Firefox")
		assert.Equal(t, "yes", r.Header.Get("X-Test"))

		switch r.URL.Path {
		case "/search":
			_, _ = w.Write([]byte(listingHTML))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	rules := testRules(srv.URL)
	rules.Headers = map[string]string{"X-Test": "yes"}

	s, err := New(rules, fetch.New(fetch.Options{}), providers.NopLogger)
	require.NoError(t, err)

	cards, err := s.Search(context.Background(), "solo", 1)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, srv.URL+"/webtoon/solo", cards[0].URL)
	assert.Equal(t, "https://test.example/webtoon/omni", cards[1].URL)

	_, err = s.GetChapters(context.Background(), cards[0], 1)
	var fe *providers.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestRules_Validation(t *testing.T) {
	_, err := New(Rules{Name: "x", BaseURL: "relative/path"}, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base_url")
	assert.Contains(t, err.Error(), "cards.item")

	r := testRules("https://test.example")
	r.Chapters.TitlePattern = "("
	_, err = New(r, nil, nil)
	assert.ErrorContains(t, err, "title_pattern")
}

func TestBuiltinRulesAreValidAndDisjoint(t *testing.T) {
	ps, err := Build(Builtin(), nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, ps, 3)

	_, err = providers.NewRegistry(nil, ps...)
	require.NoError(t, err)

	ps, err = Build(Builtin(), []string{"omegascans"}, nil, nil)
	require.NoError(t, err)
	assert.Len(t, ps, 2)
}

func TestSite_PicturesFromChapterFallbacks(t *testing.T) {
	s, _ := newTestSite(t, nil)

	pics, err := s.PicturesFromChapter([]byte(`<html><body><div class="read-content">
  <picture data-index="2"><source srcset="/img/b.webp 1x, /img/b-600x900.webp 2x"></picture>
  <div data-index="1" style="width:100%; background-image: url('/img/a.jpg')"></div>
</div></body></html>`))
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://test.example/img/a.jpg",
		"https://test.example/img/b.webp",
	}, pics)
}
