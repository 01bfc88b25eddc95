package sites

import (
	"bytes"
	"context"
	"iter"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

const defaultPageSize = providers.DefaultChapterPageSize

// Site is a providers.Provider driven by Rules. It keeps no state between
// calls besides its configuration, so one value can serve concurrent
// callers.
type Site struct {
	rules   Rules
	base    *url.URL
	titleRe *regexp.Regexp
	fetcher providers.Fetcher
	log     providers.Logger
}

var _ providers.Provider = (*Site)(nil)

func New(rules Rules, f providers.Fetcher, log providers.Logger) (*Site, error) {
	r, err := rules.normalized()
	if err != nil {
		return nil, err
	}

	base, _ := url.Parse(r.BaseURL)

	if log == nil {
		log = providers.NopLogger
	}

	s := &Site{rules: r, base: base, fetcher: f, log: log}
	if r.Chapters.TitlePattern != "" {
		s.titleRe = regexp.MustCompile(r.Chapters.TitlePattern)
	}

	return s, nil
}

func (s *Site) Name() string { return s.rules.Name }

func (s *Site) BaseURL() string { return s.rules.BaseURL }

func (s *Site) Rules() Rules { return s.rules }

func (s *Site) PageSize() int { return s.rules.PageSize }

// OwnsURL matches on host, ignoring scheme and a leading "www.", then on the
// base path prefix.
func (s *Site) OwnsURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	if bareHost(u.Host) != bareHost(s.base.Host) {
		return false
	}

	p := u.Path
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}

	return strings.HasPrefix(p, s.base.Path)
}

func bareHost(h string) string {
	return strings.TrimPrefix(strings.ToLower(h), "www.")
}

func (s *Site) Search(ctx context.Context, query string, page int) ([]providers.MangaCard, error) {
	if page < 1 {
		return []providers.MangaCard{}, nil
	}

	tmpl := s.rules.SearchURL
	if strings.TrimSpace(query) == "" {
		tmpl = s.rules.ListURL
	}

	target, ok := expand(s.base, tmpl, strings.TrimSpace(query), page)
	if !ok {
		return []providers.MangaCard{}, nil
	}

	doc, err := s.fetchDoc(ctx, target)
	if err != nil {
		return []providers.MangaCard{}, err
	}

	return s.cardsFrom(doc)
}

func (s *Site) cardsFrom(doc *goquery.Document) ([]providers.MangaCard, error) {
	r := s.rules.Cards

	scope := doc.Selection
	if r.Container != "" {
		scope = doc.Find(r.Container).First()
		if scope.Length() == 0 {
			return []providers.MangaCard{}, providers.SchemaError(s.Name(), "listing")
		}
	}

	cards := []providers.MangaCard{}
	seen := map[string]bool{}

	scope.Find(r.Item).Each(func(_ int, item *goquery.Selection) {
		link := within(item, r.Link)

		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		name := strings.TrimSpace(link.Text())
		if r.NameAttr != "text" {
			if v, ok := link.Attr(r.NameAttr); ok && strings.TrimSpace(v) != "" {
				name = strings.TrimSpace(v)
			}
		}
		if name == "" {
			return
		}

		u := resolve(s.base, href)
		if seen[u] {
			return
		}
		seen[u] = true

		cards = append(cards, providers.MangaCard{
			Source:     s,
			Name:       name,
			URL:        u,
			PictureURL: s.pictureOf(item.Find(r.Image).First()),
		})
	})

	return cards, nil
}

func (s *Site) pictureOf(img *goquery.Selection) string {
	for _, k := range imageAttrs {
		if v, ok := img.Attr(k); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
			return quoteURL(resolve(s.base, v))
		}
	}

	return ""
}

func (s *Site) GetChapters(ctx context.Context, card providers.MangaCard, page int) ([]providers.MangaChapter, error) {
	all, err := s.chapterList(ctx, card)

	return providers.PageOf(all, page, s.rules.PageSize), err
}

// IterChapters yields the chapters in the same order GetChapters pages
// through them.
func (s *Site) IterChapters(ctx context.Context, seriesURL, seriesName string) iter.Seq[providers.MangaChapter] {
	card := providers.MangaCard{Source: s, Name: seriesName, URL: seriesURL}

	// every chapter of a series sits on its page, so there is one batch
	next := func(ctx context.Context, _ int) ([]providers.MangaChapter, bool, error) {
		all, err := s.chapterList(ctx, card)
		return all, true, err
	}

	return providers.Batches(ctx, next, func(err error) {
		providers.LogFailure(s.log, s.Name(), "chapters of "+seriesURL, err)
	})
}

func (s *Site) chapterList(ctx context.Context, card providers.MangaCard) ([]providers.MangaChapter, error) {
	if card.Source == nil {
		card.Source = s
	}

	doc, err := s.fetchDoc(ctx, card.URL)
	if err != nil {
		return []providers.MangaChapter{}, err
	}

	r := s.rules.Chapters

	scope := doc.Selection
	if r.Container != "" {
		scope = doc.Find(r.Container).First()
		if scope.Length() == 0 {
			return []providers.MangaChapter{}, providers.SchemaError(s.Name(), "chapter list")
		}
	}

	out := []providers.MangaChapter{}
	seen := map[string]bool{}

	scope.Find(r.Item).Each(func(_ int, item *goquery.Selection) {
		link := within(item, r.Link)

		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		u := resolve(s.base, href)
		if seen[u] {
			return
		}
		seen[u] = true

		out = append(out, providers.MangaChapter{
			Source: s,
			Name:   s.chapterTitle(link.Text()),
			URL:    u,
			Manga:  card,
		})
	})

	return out, nil
}

func (s *Site) chapterTitle(raw string) string {
	title := strings.Join(strings.Fields(raw), " ")
	if s.titleRe == nil {
		return title
	}

	m := s.titleRe.FindStringSubmatchIndex(title)
	if m == nil {
		return title
	}

	return string(s.titleRe.ExpandString(nil, s.rules.Chapters.TitleFormat, title, m))
}

// PicturesFromChapter returns the page images of a chapter page in reading
// order. A page without the reader container, or without any image, gives
// an empty slice and ErrSchemaMismatch.
func (s *Site) PicturesFromChapter(content []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return []string{}, err
	}

	r := s.rules.Pictures

	scope := doc.Selection
	if r.Container != "" {
		scope = doc.Find(r.Container)
		if scope.Length() == 0 {
			return []string{}, providers.SchemaError(s.Name(), "chapter")
		}
	}

	col := newImageCollector(r.AllowExt)
	col.scan(scope.Find(r.Image), s.base)
	if len(col.items) == 0 {
		col.scanFallback(scope, s.base)
	}

	pictures := col.finalize()
	if len(pictures) == 0 {
		return pictures, providers.SchemaError(s.Name(), "chapter")
	}

	return pictures, nil
}

func (s *Site) GetPictures(ctx context.Context, chapter providers.MangaChapter) (providers.MangaChapter, error) {
	if chapter.Source == nil {
		chapter.Source = s
	}

	content, err := s.fetcher.Fetch(ctx, chapter.URL, s.rules.Headers)
	if err != nil {
		return chapter, err
	}

	pictures, err := s.PicturesFromChapter(content)

	return chapter.WithPictures(pictures), err
}

// CheckUpdates compares baseline with the site's recent-updates page.
func (s *Site) CheckUpdates(ctx context.Context, baseline []providers.LastChapter) ([]string, []string, error) {
	if len(baseline) == 0 {
		return []string{}, []string{}, nil
	}

	current, err := s.latestChapters(ctx)
	updated, notUpdated := providers.DetectUpdates(current, baseline)

	return updated, notUpdated, err
}

// latestChapters maps series URL to newest chapter URL from the updates
// page. A series listed twice keeps its first entry. Broken entries are
// skipped so that they do not cost the rest of the page.
func (s *Site) latestChapters(ctx context.Context) (map[string]string, error) {
	current := map[string]string{}

	doc, err := s.fetchDoc(ctx, s.rules.UpdatesURL)
	if err != nil {
		return current, err
	}

	r := s.rules.Updates

	items := doc.Find(r.Item)
	if items.Length() == 0 {
		return current, providers.SchemaError(s.Name(), "updates")
	}

	var links *goquery.Selection
	if r.ChapterFollows {
		links = doc.Find(r.Chapter)
	}

	items.Each(func(i int, item *goquery.Selection) {
		seriesLink := within(item, r.Series)
		seriesHref, ok1 := seriesLink.Attr("href")

		chapterLink := item.Find(r.Chapter).First()
		if links != nil {
			chapterLink = links.Eq(links.IndexOfSelection(seriesLink) + 1)
		}
		chapterHref, ok2 := chapterLink.Attr("href")
		if !ok1 || !ok2 || strings.TrimSpace(seriesHref) == "" || strings.TrimSpace(chapterHref) == "" {
			s.log.Warnf("[schema] %s updates entry %d: missing series or chapter link, skipped", s.Name(), i)
			return
		}

		series := resolve(s.base, seriesHref)
		if _, ok := current[series]; ok {
			return
		}
		current[series] = resolve(s.base, chapterHref)
	})

	s.log.Debugf("%s: %d series on the updates page", s.Name(), len(current))

	return current, nil
}

func (s *Site) fetchDoc(ctx context.Context, target string) (*goquery.Document, error) {
	content, err := s.fetcher.Fetch(ctx, target, s.rules.Headers)
	if err != nil {
		return nil, err
	}

	return goquery.NewDocumentFromReader(bytes.NewReader(content))
}

// within returns sel itself when it matches selector, else its first
// descendant that does.
func within(sel *goquery.Selection, selector string) *goquery.Selection {
	if sel.Is(selector) {
		return sel
	}

	return sel.Find(selector).First()
}
