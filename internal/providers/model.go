package providers

// MangaCard is one series as listed by a site. URL is the identity of the
// series; name and picture may drift between fetches.
type MangaCard struct {
	Source     Provider `yaml:"-" json:"-"`
	Name       string   `yaml:"name" json:"name"`
	URL        string   `yaml:"url" json:"url"`
	PictureURL string   `yaml:"picture_url,omitempty" json:"picture_url,omitempty"`
}

// SameSeries reports whether both cards point at the same series.
func (c MangaCard) SameSeries(other MangaCard) bool {
	return c.URL == other.URL
}

// MangaChapter is one chapter of a series. Pictures stays empty until the
// chapter page has been fetched and parsed.
type MangaChapter struct {
	Source   Provider  `yaml:"-" json:"-"`
	Name     string    `yaml:"name" json:"name"`
	URL      string    `yaml:"url" json:"url"`
	Manga    MangaCard `yaml:"manga" json:"manga"`
	Pictures []string  `yaml:"pictures,omitempty" json:"pictures,omitempty"`
}

// WithPictures returns a copy of the chapter carrying the given pictures.
func (c MangaChapter) WithPictures(pictures []string) MangaChapter {
	c.Pictures = append([]string(nil), pictures...)
	return c
}

// LastChapter is the caller's baseline for one series: the newest chapter
// URL it has already seen. Name is informational only.
type LastChapter struct {
	URL        string `yaml:"url" json:"url"`
	ChapterURL string `yaml:"chapter_url" json:"chapter_url"`
	Name       string `yaml:"name,omitempty" json:"name,omitempty"`
}
