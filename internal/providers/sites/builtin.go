package sites

import (
	"fmt"
	"maps"

	"github.com/brogergvhs/mangawatch/internal/providers"
)

var browserHeaders = map[string]string{
	"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:97.0) Gecko/20100101 Firefox/97.0",
}

// Builtin returns the rules of the sites supported out of the box.
func Builtin() []Rules {
	return []Rules{
		{
			Name:      "manhwa18",
			BaseURL:   "https://manhwa18.cc/",
			SearchURL: "search?q={query}",
			Headers:   maps.Clone(browserHeaders),
			Cards: CardRules{
				Container: "div.manga-lists",
				Item:      "div.thumb",
			},
			Chapters: ChapterRules{
				Container: "#chapterlist",
				Item:      "li",
			},
			Updates: UpdateRules{
				Item:    "div.utao",
				Chapter: "ul a",
			},
			Pictures: PictureRules{
				Container: "div.read-content",
			},
		},
		{
			Name:      "manhwahub",
			BaseURL:   "https://manhwahub.net/",
			SearchURL: "search?q={query}",
			Headers:   maps.Clone(browserHeaders),
			Cards: CardRules{
				Container: "div.listupd",
				Item:      "div.thumb-manga",
			},
			Chapters: ChapterRules{
				Container:    "ul.row-content-chapter",
				Item:         "li.a-h",
				TitlePattern: `Chapter (\d+)`,
				TitleFormat:  "C•$1",
			},
			Updates: UpdateRules{
				Item:           "h3.tt.mycover",
				Series:         "a",
				Chapter:        "a",
				ChapterFollows: true,
			},
			Pictures: PictureRules{
				Image: "div.page-break img",
			},
		},
		{
			Name:      "omegascans",
			BaseURL:   "https://omegascans.org/",
			SearchURL: "?s={query}&post_type=wp-manga",
			ListURL:   "?s=&post_type=wp-manga",
			Headers:   maps.Clone(browserHeaders),
			Cards: CardRules{
				Item: "div.bsx",
			},
			Chapters: ChapterRules{
				Container: "div.eplister",
				Item:      "a",
			},
			Updates: UpdateRules{
				Item:    "div.bsx",
				Chapter: "a.chapter",
			},
			Pictures: PictureRules{
				Image: "img.wp-manga-chapter-img",
			},
		},
	}
}

// Build turns rules into providers, skipping the disabled names. Every
// rules value must be valid.
func Build(rules []Rules, disabled []string, f providers.Fetcher, log providers.Logger) ([]providers.Provider, error) {
	off := make(map[string]bool, len(disabled))
	for _, d := range disabled {
		off[d] = true
	}

	var out []providers.Provider
	for _, r := range rules {
		if off[r.Name] {
			continue
		}

		s, err := New(r, f, log)
		if err != nil {
			return nil, fmt.Errorf("build site: %w", err)
		}
		out = append(out, s)
	}

	return out, nil
}
