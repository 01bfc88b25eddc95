package sites

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Rules describes where a site keeps the things a provider needs.
//
// URL templates may be absolute or relative to BaseURL and understand two
// placeholders: {query}, replaced with the form-encoded search terms, and
// {page}. A template without {page} has a single page.
type Rules struct {
	Name       string            `yaml:"name"`
	BaseURL    string            `yaml:"base_url"`
	SearchURL  string            `yaml:"search_url"`
	ListURL    string            `yaml:"list_url,omitempty"`
	UpdatesURL string            `yaml:"updates_url,omitempty"`
	PageSize   int               `yaml:"page_size,omitempty"`
	Headers    map[string]string `yaml:"headers,omitempty"`

	Cards    CardRules    `yaml:"cards"`
	Chapters ChapterRules `yaml:"chapters"`
	Updates  UpdateRules  `yaml:"updates"`
	Pictures PictureRules `yaml:"pictures"`
}

// CardRules locate series on listing and search pages.
type CardRules struct {
	// Container must be present on the page when set.
	Container string `yaml:"container,omitempty"`
	Item      string `yaml:"item"`
	Link      string `yaml:"link,omitempty"`
	// NameAttr is read from the link; "text" uses the link text.
	NameAttr string `yaml:"name_attr,omitempty"`
	Image    string `yaml:"image,omitempty"`
}

// ChapterRules locate chapters on a series page.
type ChapterRules struct {
	Container string `yaml:"container,omitempty"`
	Item      string `yaml:"item"`
	Link      string `yaml:"link,omitempty"`
	// TitlePattern and TitleFormat rewrite chapter titles with
	// regexp.Expand, e.g. `Chapter (\d+)` and `C•$1`. Titles that do not
	// match are kept as they are.
	TitlePattern string `yaml:"title_pattern,omitempty"`
	TitleFormat  string `yaml:"title_format,omitempty"`
}

// UpdateRules locate entries of the recent-updates page. Series and Chapter
// are looked up inside each item; the first match of each is used.
// With ChapterFollows the chapter link is instead the next Chapter match
// after the series link in the whole page, which must match Chapter too.
type UpdateRules struct {
	Item           string `yaml:"item"`
	Series         string `yaml:"series,omitempty"`
	Chapter        string `yaml:"chapter"`
	ChapterFollows bool   `yaml:"chapter_follows,omitempty"`
}

// PictureRules locate page images on a chapter page.
type PictureRules struct {
	Container string   `yaml:"container,omitempty"`
	Image     string   `yaml:"image,omitempty"`
	AllowExt  []string `yaml:"allow_ext,omitempty"`
}

var defaultAllowExt = []string{"jpg", "jpeg", "png", "webp", "gif", "avif"}

// normalized returns a copy with defaults filled in, or the reason the
// rules cannot work.
func (r Rules) normalized() (Rules, error) {
	var errs []error

	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}

	base, err := url.Parse(strings.TrimSpace(r.BaseURL))
	if err != nil || !base.IsAbs() || base.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute URL", r.BaseURL))
	} else {
		if !strings.HasSuffix(base.Path, "/") {
			base.Path += "/"
		}
		r.BaseURL = base.String()
	}

	if r.SearchURL == "" {
		errs = append(errs, errors.New("search_url is required"))
	}
	if r.Cards.Item == "" {
		errs = append(errs, errors.New("cards.item is required"))
	}
	if r.Chapters.Item == "" {
		errs = append(errs, errors.New("chapters.item is required"))
	}
	if r.Updates.Item == "" || r.Updates.Chapter == "" {
		errs = append(errs, errors.New("updates.item and updates.chapter are required"))
	}
	if r.Chapters.TitlePattern != "" {
		if _, err := regexp.Compile(r.Chapters.TitlePattern); err != nil {
			errs = append(errs, fmt.Errorf("chapters.title_pattern: %w", err))
		}
	}

	if len(errs) > 0 {
		return Rules{}, fmt.Errorf("site %q: %w", r.Name, errors.Join(errs...))
	}

	if r.ListURL == "" {
		r.ListURL = r.BaseURL
	}
	if r.UpdatesURL == "" {
		r.UpdatesURL = r.BaseURL
	}
	if r.PageSize <= 0 {
		r.PageSize = defaultPageSize
	}
	if r.Cards.Link == "" {
		r.Cards.Link = "a"
	}
	if r.Cards.NameAttr == "" {
		r.Cards.NameAttr = "title"
	}
	if r.Cards.Image == "" {
		r.Cards.Image = "img"
	}
	if r.Chapters.Link == "" {
		r.Chapters.Link = "a"
	}
	if r.Updates.Series == "" {
		r.Updates.Series = "a"
	}
	if r.Pictures.Image == "" {
		r.Pictures.Image = "img"
	}
	if len(r.Pictures.AllowExt) == 0 {
		r.Pictures.AllowExt = defaultAllowExt
	}

	return r, nil
}

// expand fills a URL template. ok is false when page > 1 is asked of a
// template that has no page placeholder.
func expand(base *url.URL, tmpl, query string, page int) (string, bool) {
	if page > 1 && !strings.Contains(tmpl, "{page}") {
		return "", false
	}

	s := strings.NewReplacer(
		"{query}", url.QueryEscape(query),
		"{page}", strconv.Itoa(page),
	).Replace(tmpl)

	return resolve(base, s), true
}

// resolve makes href absolute against base. Unparsable hrefs come back
// untouched.
func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)

	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.IsAbs() {
		return u.String()
	}

	return base.ResolveReference(u).String()
}
