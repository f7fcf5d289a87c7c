package analyzers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"candidatelens/internal/ai"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

const linkedInPageLimit = 4 << 20

// class fragments of public activity cards
var linkedInPostClasses = []string{"feed-shared-update-v2", "share-update-card", "main-feed-activity-card"}

// LinkedIn scrapes the public activity of a profile
type LinkedIn struct {
	client     *Client
	cfg        config.LinkedInConfig
	classifier PostClassifier
	logger     *errors.Logger
}

func NewLinkedIn(client *Client, cfg config.LinkedInConfig, classifier PostClassifier, logger *errors.Logger) *LinkedIn {
	if logger == nil {
		logger = errors.Discard()
	}
	return &LinkedIn{client: client, cfg: cfg, classifier: classifier, logger: logger}
}

// Analyze fetches the profile page and classifies the posts found on it
func (l *LinkedIn) Analyze(ctx context.Context, profileURL, domain string) (*types.LinkedInAnalysis, error) {
	target, err := normalizeProfileURL(profileURL)
	if err != nil {
		return nil, err
	}

	page, err := l.client.Fetch(ctx, target, map[string]string{"Accept": "text/html"}, linkedInPageLimit)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(target, page.StatusCode); err != nil {
		return nil, err
	}

	doc, err := parseHTML(page.Body)
	if err != nil {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidFormat, "unreadable LinkedIn page", err)
	}
	posts := extractLinkedInPosts(doc, l.maxPosts())
	l.logger.Debug("LinkedIn posts extracted", "profile", target, "posts", len(posts))

	c, err := classify(ctx, l.classifier, ai.PostsLinkedIn, domain, posts)
	if err != nil {
		return nil, err
	}

	return &types.LinkedInAnalysis{
		ProfileURL:           profileURL,
		PostsAnalyzed:        len(posts),
		TechnicalPosts:       c.TechnicalCount,
		DomainRelevantPosts:  c.RelevantCount,
		DomainRelevanceScore: c.RelevanceScore,
		Topics:               c.Topics,
	}, nil
}

func (l *LinkedIn) maxPosts() int {
	if l.cfg.MaxPosts <= 0 {
		return 10
	}
	return l.cfg.MaxPosts
}

func extractLinkedInPosts(doc *html.Node, limit int) []string {
	var posts []string
	walk(doc, func(n *html.Node) bool {
		if len(posts) >= limit {
			return false
		}
		if n.Type == html.ElementNode && (n.DataAtom == atom.Div || n.DataAtom == atom.Article || n.DataAtom == atom.Li) &&
			hasClass(n, linkedInPostClasses...) {
			if text := textContent(n); text != "" {
				posts = append(posts, truncateText(text, 1500))
			}
			// nested cards belong to the same post
			return false
		}
		return true
	})
	return posts
}

// normalizeProfileURL accepts "linkedin.com/in/x" style input and requires http(s)
func normalizeProfileURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid profile URL %q", raw), err)
	}
	return u.String(), nil
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
