// Package chapters names the files a downloaded chapter ends up in.
package chapters

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/brogergvhs/mangawatch/internal/providers"
	"github.com/brogergvhs/mangawatch/internal/util"
)

var (
	separators   = strings.NewReplacer("•", "_", "-", "_", "—", "_", "–", "_", "/", "_", "\\", "_", ".", "_", " ", "_")
	reUnderscore = regexp.MustCompile(`_+`)
)

// Sanitize lowercases s and keeps letters, digits and single underscores.
func Sanitize(s string) string {
	s = separators.Replace(strings.ToLower(s))

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			return r
		}
		return -1
	}, s)

	return strings.Trim(reUnderscore.ReplaceAllString(s, "_"), "_")
}

// Files derives the output names of a chapter.
type Files struct {
	providers.MangaChapter
}

func (f Files) BaseName() string {
	series := Sanitize(f.Manga.Name)
	name := Sanitize(f.Name)

	switch {
	case name == "":
		name = Sanitize(filepath.Base(strings.TrimRight(f.URL, "/")))
	case series != "" && !strings.HasPrefix(name, series):
		name = series + "_" + name
	}
	if name == "" {
		name = "chapter"
	}

	return name
}

func (f Files) TempDir(out string) string {
	return filepath.Join(out, f.BaseName()+util.TempSuffix)
}

func (f Files) CBZPath(out string) string {
	return filepath.Join(out, f.BaseName()+".cbz")
}

func (f Files) ComicInfo() util.ComicInfo {
	return util.ComicInfo{Series: f.Manga.Name, Title: f.Name, Web: f.URL}
}
