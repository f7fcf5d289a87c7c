package analyzers

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"candidatelens/internal/ai"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

const mediumFeedLimit = 4 << 20

// Medium reads a user's RSS feed
type Medium struct {
	client     *Client
	cfg        config.MediumConfig
	classifier PostClassifier
	logger     *errors.Logger
}

func NewMedium(client *Client, cfg config.MediumConfig, classifier PostClassifier, logger *errors.Logger) *Medium {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Medium{client: client, cfg: cfg, classifier: classifier, logger: logger}
}

type rssFeed struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Categories  []string `xml:"category"`
	Description string   `xml:"description"`
	Content     string   `xml:"http://purl.org/rss/1.0/modules/content/ encoded"`
}

// Analyze fetches the feed of username and classifies the latest articles
func (m *Medium) Analyze(ctx context.Context, username, domain string) (*types.MediumAnalysis, error) {
	feedURL := m.feedURL(username)
	page, err := m.client.Fetch(ctx, feedURL, map[string]string{"Accept": "application/rss+xml, application/xml"}, mediumFeedLimit)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(feedURL, page.StatusCode); err != nil {
		return nil, err
	}

	items, err := parseFeed(page.Body)
	if err != nil {
		return nil, err
	}
	if limit := m.cfg.MaxArticles; limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	titles := make([]string, 0, len(items))
	articles := make([]string, 0, len(items))
	for _, it := range items {
		titles = append(titles, strings.TrimSpace(it.Title))
		articles = append(articles, articleText(it))
	}

	c, err := classify(ctx, m.classifier, ai.PostsMedium, domain, articles)
	if err != nil {
		return nil, err
	}

	return &types.MediumAnalysis{
		Username:             username,
		Articles:             len(items),
		TechnicalArticles:    c.TechnicalCount,
		RelevantArticles:     c.RelevantCount,
		DomainRelevanceScore: c.RelevanceScore,
		Titles:               titles,
	}, nil
}

func (m *Medium) feedURL(username string) string {
	pattern := m.cfg.FeedURL
	if pattern == "" {
		pattern = "https://medium.com/feed/@%s"
	}
	return fmt.Sprintf(pattern, url.PathEscape(username))
}

func parseFeed(body []byte) ([]rssItem, error) {
	var feed rssFeed
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	dec.Strict = false
	if err := dec.Decode(&feed); err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "unreadable RSS feed", err)
	}
	return feed.Channel.Items, nil
}

// articleText is the title, tags and an excerpt of the body
func articleText(it rssItem) string {
	body := it.Content
	if body == "" {
		body = it.Description
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Title: %s\n", strings.TrimSpace(it.Title))
	if len(it.Categories) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(it.Categories, ", "))
	}
	fmt.Fprintf(&b, "Content: %s", truncateText(stripTags(body), 500))
	return b.String()
}
