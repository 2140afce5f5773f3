package adapters

import (
	"context"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/pkg/fn"
)

var imageExtRegex = regexp.MustCompile(`(?i)\.(jpe?g|png|webp)(\?.*)?$`)

// extractListingURLs pulls candidate detail-page URLs out of a listing
// document: every anchor whose resolved href matches pattern, deduplicated
// with order preserved and capped at max.
func extractListingURLs(doc *goquery.Document, base *url.URL, pattern *regexp.Regexp, max int) []string {
	var urls []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		abs := absoluteURL(base, href)
		if abs == "" || !pattern.MatchString(abs) {
			return
		}
		urls = append(urls, abs)
	})
	return fn.Take(fn.Unique(urls), max)
}

// absoluteURL resolves href against base, dropping fragments and anything
// that is not http(s).
func absoluteURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// firstText returns the trimmed text of the first selector that matches
// anything. First match wins.
func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if text := strings.TrimSpace(node.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

// extractPhotos collects photo URLs from anchors and images whose target
// looks like an image file or lives under a gallery path, normalized to
// absolute URLs and deduplicated.
func extractPhotos(doc *goquery.Document, base *url.URL, galleryPath string) []string {
	var photos []string

	add := func(raw string) {
		abs := absoluteURL(base, raw)
		if abs == "" {
			return
		}
		if imageExtRegex.MatchString(abs) || (galleryPath != "" && strings.Contains(abs, galleryPath)) {
			photos = append(photos, abs)
		}
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		add(href)
	})
	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		add(src)
	})

	return fn.Unique(photos)
}

// Polish gendered nouns used to infer sex from page text.
var (
	femaleWords = []string{"suczka", "suka", "sunia", "samica", "samiczka"}
	maleWords   = []string{"piesek", "pies", "samiec", "psiak"}
)

// inferSex scans page text for gendered Polish nouns. Female wins over male
// because "pies" also serves as the species word; unknown when neither
// appears.
func inferSex(text string) domain.Sex {
	lower := strings.ToLower(text)
	for _, w := range femaleWords {
		if containsWord(lower, w) {
			return domain.SexFemale
		}
	}
	for _, w := range maleWords {
		if containsWord(lower, w) {
			return domain.SexMale
		}
	}
	return domain.SexUnknown
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isLetter(text[start-1])
		afterOK := end == len(text) || !isLetter(text[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

// externalIDFromPath derives the external id from the last path segment of a
// detail URL, e.g. /pies/burek-4821/ → "burek-4821".
func externalIDFromPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[len(segments)-1]
}

// externalIDFromQuery derives the external id from a query parameter.
func externalIDFromQuery(rawURL, param string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(param)
}

// collectDetails fetches and parses detail pages with a bounded worker pool,
// preserving listing order. A failed page drops its item; the error never
// escalates past this boundary.
func collectDetails(ctx context.Context, urls []string, workers int, parseOne func(ctx context.Context, url string) (domain.RawDogData, error)) []domain.RawDogData {
	results := fn.ParMapResult(urls, workers, func(u string) fn.Result[domain.RawDogData] {
		return fn.FromPair(parseOne(ctx, u))
	})
	return fn.FilterMap(results, func(r fn.Result[domain.RawDogData]) (domain.RawDogData, bool) {
		raw, err := r.Unwrap()
		return raw, err == nil
	})
}

// parseDocument wraps goquery parsing with a ParseError.
func parseDocument(shelterID, html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &domain.ParseError{ShelterID: shelterID, Detail: "invalid html", Err: err}
	}
	return doc, nil
}

// urgentWords flag dogs the shelter marks as priority cases.
var urgentWords = []string{"pilne", "pilnie", "umiera", "azyl zamykany", "ostatnia szansa"}

func isUrgent(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range urgentWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
