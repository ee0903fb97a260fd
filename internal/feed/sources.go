package feed

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// sourcesConfig is the YAML source list format:
//
// feeds:
//   - title: SlowMist
//     url: https://example.org/feed.xml
//     site: https://example.org
type sourcesConfig struct {
	Feeds []struct {
		Title string `yaml:"title"`
		URL   string `yaml:"url"`
		Site  string `yaml:"site"`
	} `yaml:"feeds"`
}

// opmlOutline mirrors the subset of OPML the source list uses. Outlines nest
// arbitrarily; only type="rss" entries with an xmlUrl are feeds.
type opmlOutline struct {
	Type     string        `xml:"type,attr"`
	Text     string        `xml:"text,attr"`
	Title    string        `xml:"title,attr"`
	XMLURL   string        `xml:"xmlUrl,attr"`
	HTMLURL  string        `xml:"htmlUrl,attr"`
	Outlines []opmlOutline `xml:"outline"`
}

type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Body    struct {
		Outlines []opmlOutline `xml:"outline"`
	} `xml:"body"`
}

// LoadSources reads the feed source list. OPML and YAML formats are
// supported, picked by file extension.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source list: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".opml", ".xml":
		return parseOPML(data)
	default:
		return parseYAMLSources(data)
	}
}

func parseYAMLSources(data []byte) ([]Source, error) {
	var cfg sourcesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse source list: %w", err)
	}

	sources := make([]Source, 0, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		if f.URL == "" {
			continue
		}
		title := f.Title
		if title == "" {
			title = "Untitled"
		}
		sources = append(sources, Source{Title: title, FeedURL: f.URL, SiteURL: f.Site})
	}
	return sources, nil
}

func parseOPML(data []byte) ([]Source, error) {
	var doc opmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse OPML: %w", err)
	}

	var sources []Source
	var walk func(outlines []opmlOutline)
	walk = func(outlines []opmlOutline) {
		for _, o := range outlines {
			if o.Type == "rss" && o.XMLURL != "" {
				title := o.Text
				if title == "" {
					title = o.Title
				}
				if title == "" {
					title = "Untitled"
				}
				sources = append(sources, Source{Title: title, FeedURL: o.XMLURL, SiteURL: o.HTMLURL})
			}
			walk(o.Outlines)
		}
	}
	walk(doc.Body.Outlines)
	return sources, nil
}
