package providers

import (
	"strconv"
	"strings"
)

// Select narrows a chapter list the way the CLI flags ask for it: by name
// (falling back to a 1-based position), by an "a-b" position range or by a
// comma separated list of positions. With no criteria it returns all.
func Select(all []MangaChapter, name, rng, list string) []MangaChapter {
	if name != "" {
		byName := SelectByName(all, name)
		if len(byName) > 0 {
			return byName
		}

		if idx, err := strconv.Atoi(name); err == nil && idx > 0 && idx <= len(all) {
			return []MangaChapter{all[idx-1]}
		}

		return nil
	}

	if rng != "" {
		return SelectRange(all, rng)
	}
	if list != "" {
		return SelectList(all, list)
	}

	return all
}

func SelectByName(all []MangaChapter, name string) []MangaChapter {
	var out []MangaChapter
	for _, c := range all {
		if strings.EqualFold(strings.TrimSpace(c.Name), strings.TrimSpace(name)) {
			out = append(out, c)
		}
	}

	return out
}

func SelectRange(all []MangaChapter, rng string) []MangaChapter {
	from, to, ok := strings.Cut(rng, "-")
	if !ok {
		return nil
	}

	start, err1 := strconv.Atoi(strings.TrimSpace(from))
	end, err2 := strconv.Atoi(strings.TrimSpace(to))
	if err1 != nil || err2 != nil {
		return nil
	}
	if start <= 0 || start > end || end > len(all) {
		return nil
	}

	return all[start-1 : end]
}

func SelectList(all []MangaChapter, list string) []MangaChapter {
	var out []MangaChapter

	for p := range strings.SplitSeq(list, ",") {
		idx, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || idx <= 0 || idx > len(all) {
			continue
		}

		out = append(out, all[idx-1])
	}

	return out
}
