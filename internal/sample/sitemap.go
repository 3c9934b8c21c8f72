package sample

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/dframe-go/dframe/router"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// sitemap lists every static GET page. Named pages rank higher.
func sitemap(c *router.Context) ([]byte, error) {
	base, _ := c.URL("home")
	base = strings.TrimRight(base, "/")
	now := time.Now().UTC().Format(time.RFC3339)

	set := urlset{NS: sitemapNS}
	seen := make(map[string]bool)
	for _, rt := range c.Router().Routes() {
		if rt.API || rt.Method != router.MethodGet || strings.Contains(rt.Path, "{") || seen[rt.Path] {
			continue
		}
		seen[rt.Path] = true
		priority := "0.5"
		if rt.Name != "" {
			priority = "0.6"
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + rt.Path,
			LastMod:    now,
			ChangeFreq: "weekly",
			Priority:   priority,
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	c.Response().Header().Set("Content-Type", "application/xml; charset=UTF-8")
	return append([]byte(xml.Header), out...), nil
}
