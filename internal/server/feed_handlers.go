package server

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

const feedEntryLimit = 50

func (s *Server) siteURL() string {
	if s.config != nil && s.config.SiteURL != "" {
		return s.config.SiteURL
	}
	return "http://localhost:8080"
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap handles GET /sitemap.xml with the landing pages and the newest
// published posts.
func (s *Server) Sitemap(c *fiber.Ctx) error {
	base := s.siteURL()
	today := time.Now().Format("2006-01-02")

	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: base + "/", LastMod: today, ChangeFreq: "daily", Priority: "1.0"},
			{Loc: base + "/tags", LastMod: today, ChangeFreq: "weekly", Priority: "0.6"},
		},
	}

	posts, err := s.postRepo.ListPublishedSince(c.Context(), feedEntryLimit)
	if err != nil {
		return respondError(c, err)
	}
	for _, p := range posts {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/posts/%s", base, p.Slug),
			LastMod:    p.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "application/xml; charset=utf-8")
	return c.SendString(xml.Header + string(body))
}

type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    string `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Creator string `xml:"dc:creator,omitempty"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	XmlnsDC string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

// RSSFeed handles GET /feed.xml with the newest published posts.
func (s *Server) RSSFeed(c *fiber.Ctx) error {
	base := s.siteURL()

	posts, err := s.postRepo.ListPublishedSince(c.Context(), feedEntryLimit)
	if err != nil {
		return respondError(c, err)
	}

	feed := rssFeed{
		Version: "2.0",
		XmlnsDC: "http://purl.org/dc/elements/1.1/",
		Channel: rssChannel{
			Title:       "Inkwell",
			Link:        base,
			Description: "Latest posts",
		},
	}
	for _, p := range posts {
		item := rssItem{
			Title:   p.Title,
			Link:    fmt.Sprintf("%s/posts/%s", base, p.Slug),
			GUID:    fmt.Sprintf("%s/posts/%s", base, p.Slug),
			PubDate: p.CreatedAt.Format(time.RFC1123Z),
		}
		if p.User.ID != 0 {
			item.Creator = p.User.Username
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}

	body, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return respondError(c, err)
	}
	c.Set("Content-Type", "application/rss+xml; charset=utf-8")
	return c.SendString(xml.Header + string(body))
}

// RobotsTxt handles GET /robots.txt.
func (s *Server) RobotsTxt(c *fiber.Ctx) error {
	content := fmt.Sprintf(`User-agent: *
Allow: /

Disallow: /api/
Disallow: /metrics

Sitemap: %s/sitemap.xml
`, s.siteURL())

	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(content)
}
