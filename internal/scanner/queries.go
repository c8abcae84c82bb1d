package scanner

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/olegrjumin/sitescan/internal/browser"
)

// imageInfo is one <img> as reported by the page
type imageInfo struct {
	Src    string `json:"src"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

var scriptSourcesQuery = browser.Query{
	Name:   "scripts",
	Script: `Array.from(document.scripts).map(s => s.src).filter(Boolean)`,
	Select: func(doc *goquery.Document, base *url.URL) any {
		return attrURLs(doc, base, "script[src]", "src")
	},
}

var imagesQuery = browser.Query{
	Name: "images",
	Script: `Array.from(document.images).map(img => ({
		src: img.src,
		width: img.width,
		height: img.height
	}))`,
	Select: func(doc *goquery.Document, base *url.URL) any {
		images := make([]imageInfo, 0)
		doc.Find("img").Each(func(_ int, s *goquery.Selection) {
			src, _ := s.Attr("src")
			images = append(images, imageInfo{
				Src:    resolve(base, src),
				Width:  dimension(s, "width"),
				Height: dimension(s, "height"),
			})
		})
		return images
	},
}

var iframeSourcesQuery = browser.Query{
	Name:   "iframes",
	Script: `Array.from(document.querySelectorAll('iframe')).map(f => f.src).filter(Boolean)`,
	Select: func(doc *goquery.Document, base *url.URL) any {
		return attrURLs(doc, base, "iframe[src]", "src")
	},
}

func attrURLs(doc *goquery.Document, base *url.URL, selector, attr string) []string {
	urls := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		value, _ := s.Attr(attr)
		if resolved := resolve(base, value); resolved != "" {
			urls = append(urls, resolved)
		}
	})
	return urls
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base == nil {
		return u.String()
	}
	return base.ResolveReference(u).String()
}

// dimension reads a width or height attribute; missing or non-numeric values are 0,
// matching an image the browser has not laid out
func dimension(s *goquery.Selection, attr string) int {
	value, ok := s.Attr(attr)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "px"))
	if err != nil {
		return 0
	}
	return n
}
