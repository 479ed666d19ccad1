package feed

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/yuaoi107/yuyi/pkg/model"
)

const (
	itunesNamespaceURL  = "http://www.itunes.com/dtds/podcast-1.0.dtd"
	contentNamespaceURL = "http://purl.org/rss/1.0/modules/content/"
)

// Document is an RSS 2.0 feed document with the itunes podcast extension.
// Field order mirrors the element order feed readers expect.
type Document struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ItunesNS  string   `xml:"xmlns:itunes,attr"`
	ContentNS string   `xml:"xmlns:content,attr"`
	Channel   Channel  `xml:"channel"`
}

type Channel struct {
	Title       string   `xml:"title"`
	Description string   `xml:"description"`
	Image       Image    `xml:"itunes:image"`
	Language    string   `xml:"language"`
	Category    Category `xml:"itunes:category"`
	Explicit    string   `xml:"itunes:explicit"`
	Author      string   `xml:"author,omitempty"`
	Link        string   `xml:"link,omitempty"`
	Copyright   string   `xml:"copyright,omitempty"`
	Generator   string   `xml:"generator,omitempty"`
	Items       []Item   `xml:"item"`
}

type Image struct {
	Href string `xml:"href,attr"`
}

type Category struct {
	Text        string    `xml:"text,attr"`
	Subcategory *Category `xml:"itunes:category,omitempty"`
}

type Item struct {
	Title       string    `xml:"title"`
	Enclosure   Enclosure `xml:"enclosure"`
	GUID        string    `xml:"guid"`
	PubDate     string    `xml:"pubDate,omitempty"`
	Description string    `xml:"description,omitempty"`
	Duration    string    `xml:"itunes:duration,omitempty"`
	Image       *Image    `xml:"itunes:image,omitempty"`
	Explicit    string    `xml:"itunes:explicit,omitempty"`
}

type Enclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// Bytes serializes the document to UTF-8 XML.
func (d *Document) Bytes() ([]byte, error) {
	data, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal feed document")
	}

	return append([]byte(xml.Header), data...), nil
}

// Build renders a feed document for the podcast, which must have its
// episodes and author eagerly loaded. A nil result means the podcast is
// not ready to publish; that is an expected state, not an error.
func Build(podcast *model.Podcast, baseURL string) *Document {
	if !publishable(podcast) {
		return nil
	}

	channel := Channel{
		Title:       podcast.Title,
		Description: podcast.Description,
		Image:       Image{Href: podcastCoverURL(baseURL, podcast.ID)},
		Language:    podcast.Language,
		Category:    Category{Text: podcast.Category},
		Explicit:    strconv.FormatBool(podcast.Explicit),
		Link:        podcast.Link,
		Copyright:   podcast.Copyright,
		Generator:   podcast.Generator,
	}

	if podcast.Subcategory != "" {
		channel.Category.Subcategory = &Category{Text: podcast.Subcategory}
	}

	if podcast.Author != nil {
		channel.Author = podcast.Author.Nickname
	}

	for _, episode := range podcast.Episodes {
		if !qualifies(episode) {
			continue
		}

		channel.Items = append(channel.Items, buildItem(episode, baseURL))
	}

	return &Document{
		Version:   "2.0",
		ItunesNS:  itunesNamespaceURL,
		ContentNS: contentNamespaceURL,
		Channel:   channel,
	}
}

func buildItem(episode *model.Episode, baseURL string) Item {
	item := Item{
		Title: episode.Title,
		Enclosure: Enclosure{
			URL:    episodeAudioURL(baseURL, episode.ID),
			Length: strconv.FormatInt(episode.AudioLength, 10),
			Type:   episode.AudioType,
		},
		GUID:        episode.GUID,
		Description: episode.Description,
	}

	if !episode.PubDate.IsZero() {
		item.PubDate = episode.PubDate.Format(time.RFC1123Z)
	}

	if episode.Duration > 0 {
		item.Duration = strconv.Itoa(episode.Duration)
	}

	if episode.CoverKey != "" {
		item.Image = &Image{Href: episodeCoverURL(baseURL, episode.ID)}
	}

	if episode.Explicit {
		item.Explicit = "true"
	}

	return item
}

// publishable is the podcast-level readiness gate. The episode count is
// checked on the raw collection, before per-item filtering.
func publishable(p *model.Podcast) bool {
	return len(p.Episodes) > 0 &&
		p.Title != "" &&
		p.Description != "" &&
		p.Language != "" &&
		p.Category != "" &&
		p.Subcategory != ""
}

// qualifies is the per-episode inclusion gate. Episodes without uploaded
// audio exist in the system but stay out of the feed.
func qualifies(e *model.Episode) bool {
	return e.Title != "" &&
		e.AudioKey != "" &&
		e.AudioLength > 0 &&
		e.AudioType != ""
}

func podcastCoverURL(baseURL string, podcastID int64) string {
	return fmt.Sprintf("%s/podcasts/%d/cover", strings.TrimSuffix(baseURL, "/"), podcastID)
}

func episodeCoverURL(baseURL string, episodeID int64) string {
	return fmt.Sprintf("%s/episodes/%d/cover", strings.TrimSuffix(baseURL, "/"), episodeID)
}

func episodeAudioURL(baseURL string, episodeID int64) string {
	return fmt.Sprintf("%s/episodes/%d/audio", strings.TrimSuffix(baseURL, "/"), episodeID)
}
