package analyzers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"candidatelens/internal/ai"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// Twitter reads a user's recent tweets through the v2 API
type Twitter struct {
	client     *Client
	cfg        config.TwitterConfig
	classifier PostClassifier
	logger     *errors.Logger
}

func NewTwitter(client *Client, cfg config.TwitterConfig, classifier PostClassifier, logger *errors.Logger) *Twitter {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Twitter{client: client, cfg: cfg, classifier: classifier, logger: logger}
}

type twitterUserResponse struct {
	Data struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		PublicMetrics struct {
			FollowersCount int `json:"followers_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

type twitterTweetsResponse struct {
	Data []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Analyze looks up username, fetches recent tweets and classifies them
func (t *Twitter) Analyze(ctx context.Context, username, domain string) (*types.TwitterAnalysis, error) {
	if t.cfg.BearerToken == "" {
		return nil, errors.NewConfigError(errors.ErrCodePlatformUnavailable, "Twitter bearer token not configured", nil)
	}

	base := strings.TrimRight(t.cfg.BaseURL, "/")
	headers := map[string]string{"Authorization": "Bearer " + t.cfg.BearerToken}

	var user twitterUserResponse
	userURL := fmt.Sprintf("%s/users/by/username/%s?user.fields=public_metrics", base, url.PathEscape(username))
	if err := t.client.GetJSON(ctx, userURL, headers, &user); err != nil {
		return nil, err
	}
	if user.Data.ID == "" {
		return nil, errors.NewNotFoundError(errors.ErrCodeProfileNotFound,
			fmt.Sprintf("Twitter user %s not found", username), nil)
	}

	var tweets twitterTweetsResponse
	tweetsURL := fmt.Sprintf("%s/users/%s/tweets?max_results=%d&tweet.fields=public_metrics,created_at",
		base, url.PathEscape(user.Data.ID), t.maxResults())
	if err := t.client.GetJSON(ctx, tweetsURL, headers, &tweets); err != nil {
		return nil, err
	}

	texts := make([]string, 0, len(tweets.Data))
	for _, tw := range tweets.Data {
		if s := strings.TrimSpace(tw.Text); s != "" {
			texts = append(texts, s)
		}
	}

	c, err := classify(ctx, t.classifier, ai.PostsTwitter, domain, texts)
	if err != nil {
		return nil, err
	}

	return &types.TwitterAnalysis{
		Username:             username,
		Followers:            user.Data.PublicMetrics.FollowersCount,
		TweetsAnalyzed:       len(texts),
		TechnicalTweets:      c.TechnicalCount,
		RelevantTweets:       c.RelevantCount,
		DomainRelevanceScore: c.RelevanceScore,
	}, nil
}

// maxResults keeps the page size inside the 5..100 range the API accepts
func (t *Twitter) maxResults() int {
	return min(max(t.cfg.MaxTweets, 5), 100)
}
