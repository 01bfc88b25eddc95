package sites

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSizeSuffix    = regexp.MustCompile(`[-_]\d{2,5}x\d{2,5}`)
	reParseSize     = regexp.MustCompile(`[-_](\d{2,5})x(\d{2,5})`)
	reBackgroundURL = regexp.MustCompile(`(?i)background(?:-image)?\s*:[^;]*url\(\s*['"]?([^'")]+)['"]?\s*\)`)
)

var imageAttrs = []string{"data-src", "data-lazy-src", "data-original", "src"}

type collectedImage struct {
	URL   string
	Index int // data-index of the image or its parent, -1 if none
	Order int // discovery order
}

// imageCollector gathers page images, drops duplicates and thumbnail
// variants, and orders them as the reader shows them.
type imageCollector struct {
	allowed map[string]bool
	items   []collectedImage
	seen    map[string]bool
}

func newImageCollector(allowExt []string) *imageCollector {
	allowed := make(map[string]bool, len(allowExt))
	for _, ext := range allowExt {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			allowed[ext] = true
		}
	}

	return &imageCollector{
		allowed: allowed,
		items:   make([]collectedImage, 0, 64),
		seen:    make(map[string]bool),
	}
}

func (c *imageCollector) add(raw string, idx int) {
	raw = strings.TrimSpace(raw)
	low := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(low, "data:") || strings.HasPrefix(low, "javascript:") {
		return
	}

	if !c.extAllowed(raw) {
		return
	}

	if c.seen[raw] {
		return
	}
	c.seen[raw] = true

	c.items = append(c.items, collectedImage{URL: raw, Index: idx, Order: len(c.items)})
}

// extAllowed accepts URLs without an extension: CDNs often serve images from
// extensionless paths.
func (c *imageCollector) extAllowed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	return ext == "" || c.allowed[ext]
}

// scan collects every image matched by sel. Lazy-loading attributes win over
// src, which then usually holds a placeholder.
func (c *imageCollector) scan(sel *goquery.Selection, base *url.URL) {
	sel.Each(func(_ int, img *goquery.Selection) {
		idx := indexOf(img)

		for _, k := range imageAttrs {
			if v, ok := img.Attr(k); ok && strings.TrimSpace(v) != "" {
				c.add(quoteURL(resolve(base, v)), idx)
				break
			}
		}

		c.addSrcset(img, base, idx)
	})
}

// scanFallback looks for pages drawn without <img>: <picture> sources and
// CSS background images.
func (c *imageCollector) scanFallback(scope *goquery.Selection, base *url.URL) {
	scope.Find("source[srcset]").Each(func(_ int, src *goquery.Selection) {
		c.addSrcset(src, base, indexOf(src))
	})

	scope.Find("[style]").Each(func(_ int, el *goquery.Selection) {
		style, _ := el.Attr("style")

		idx := indexOf(el)
		for _, m := range reBackgroundURL.FindAllStringSubmatch(style, -1) {
			c.add(quoteURL(resolve(base, m[1])), idx)
		}
	})
}

func (c *imageCollector) addSrcset(sel *goquery.Selection, base *url.URL, idx int) {
	ss, ok := sel.Attr("srcset")
	if !ok {
		return
	}

	for p := range strings.SplitSeq(ss, ",") {
		if parts := strings.Fields(p); len(parts) > 0 {
			c.add(quoteURL(resolve(base, parts[0])), idx)
		}
	}
}

func indexOf(sel *goquery.Selection) int {
	v, ok := sel.Attr("data-index")
	if !ok {
		v, ok = sel.ParentsFiltered("[data-index]").First().Attr("data-index")
	}
	if !ok {
		return -1
	}

	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return -1
	}

	return n
}

// finalize keeps the best variant of every image and returns them sorted by
// explicit index first, discovery order second.
func (c *imageCollector) finalize() []string {
	if len(c.items) == 0 {
		return []string{}
	}

	groups := map[string][]collectedImage{}
	var keys []string
	for _, it := range c.items {
		key := variantKey(it.URL)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], it)
	}

	chosen := make([]collectedImage, 0, len(keys))
	for _, k := range keys {
		chosen = append(chosen, pickVariant(groups[k]))
	}

	sort.SliceStable(chosen, func(i, j int) bool {
		ai, aj := chosen[i].Index, chosen[j].Index
		switch {
		case ai >= 0 && aj >= 0 && ai != aj:
			return ai < aj
		case ai >= 0 && aj < 0:
			return true
		case ai < 0 && aj >= 0:
			return false
		}
		return chosen[i].Order < chosen[j].Order
	})

	out := make([]string, len(chosen))
	for i := range chosen {
		out[i] = chosen[i].URL
	}

	return out
}

// variantKey strips WordPress-style "-300x450" size suffixes so that
// thumbnails and the full image land in one group.
func variantKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	ext := path.Ext(u.Path)
	stem := strings.TrimSuffix(u.Path, ext)
	stem = strings.TrimRight(reSizeSuffix.ReplaceAllString(stem, ""), "-_")

	return u.Host + stem + ext
}

// pickVariant prefers the unsuffixed original, then the largest sized one.
// The group keeps the earliest order and the smallest known index.
func pickVariant(items []collectedImage) collectedImage {
	best := items[0]
	bestArea := area(best.URL)

	for _, it := range items[1:] {
		a := area(it.URL)
		if bestArea != 0 && (a == 0 || a > bestArea) {
			best, bestArea = it, a
		}
	}

	out := collectedImage{URL: best.URL, Index: -1, Order: items[0].Order}
	for _, it := range items {
		if it.Index >= 0 && (out.Index < 0 || it.Index < out.Index) {
			out.Index = it.Index
		}
	}

	return out
}

// area is width*height parsed from a size suffix, 0 for originals.
func area(raw string) int {
	m := reParseSize.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}

	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])

	return w * h
}

// quoteURL percent-encodes what browsers would (spaces, quotes, non-ASCII)
// and leaves URL syntax and existing escapes alone.
func quoteURL(raw string) string {
	const safe = ":/?#[]@!$&'()*+,;=%-._~"

	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		if ch < 0x80 && (isAlnum(ch) || strings.IndexByte(safe, ch) >= 0) {
			b.WriteByte(ch)
			continue
		}
		b.WriteString("%" + strings.ToUpper(strconv.FormatInt(int64(ch)|0x100, 16)[1:]))
	}

	return b.String()
}

func isAlnum(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}
