package analyzers

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"candidatelens/internal/ai"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

const topRepositories = 10

// RepoReviewer judges repository metadata
type RepoReviewer interface {
	ReviewRepositories(ctx context.Context, domain string, repos []types.RepoSummary) (ai.RepoReview, error)
}

// GitHub analyzes a GitHub account through the REST API
type GitHub struct {
	client   *Client
	cfg      config.GitHubConfig
	reviewer RepoReviewer
	logger   *errors.Logger
}

func NewGitHub(client *Client, cfg config.GitHubConfig, reviewer RepoReviewer, logger *errors.Logger) *GitHub {
	if logger == nil {
		logger = errors.Discard()
	}
	return &GitHub{client: client, cfg: cfg, reviewer: reviewer, logger: logger}
}

type githubUser struct {
	Login       string `json:"login"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
}

type githubRepo struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	Size            int    `json:"size"`
	Fork            bool   `json:"fork"`
}

// Analyze fetches the profile and repositories of username and rates them for domain
func (g *GitHub) Analyze(ctx context.Context, username, domain string) (*types.GitHubAnalysis, error) {
	base := strings.TrimRight(g.cfg.BaseURL, "/")
	headers := map[string]string{"Accept": "application/vnd.github+json"}
	if g.cfg.Token != "" {
		headers["Authorization"] = "Bearer " + g.cfg.Token
	}

	var user githubUser
	if err := g.client.GetJSON(ctx, fmt.Sprintf("%s/users/%s", base, url.PathEscape(username)), headers, &user); err != nil {
		return nil, err
	}

	perPage := g.cfg.MaxRepos
	if perPage <= 0 || perPage > 100 {
		perPage = 30
	}
	var repos []githubRepo
	reposURL := fmt.Sprintf("%s/users/%s/repos?sort=updated&per_page=%d", base, url.PathEscape(username), perPage)
	if err := g.client.GetJSON(ctx, reposURL, headers, &repos); err != nil {
		return nil, err
	}

	analysis := summarizeRepos(username, user, repos)
	if len(analysis.TopRepositories) == 0 {
		return analysis, nil
	}

	review := min(max(g.cfg.ReviewRepos, 1), len(analysis.TopRepositories))
	sample := analysis.TopRepositories[:review]

	result, err := g.review(ctx, domain, sample)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("Repository review failed, using heuristic scores",
			"username", username,
			"error", err.Error())
		analysis.CodeQualityScore = ai.NeutralScore
		analysis.ProjectComplexityScore = heuristicComplexity(sample)
		analysis.DomainRelevanceScore = ai.NeutralScore
		return analysis, nil
	}

	analysis.CodeQualityScore = result.CodeQuality
	analysis.ProjectComplexityScore = result.Complexity
	analysis.DomainRelevanceScore = result.DomainRelevance
	return analysis, nil
}

func (g *GitHub) review(ctx context.Context, domain string, repos []types.RepoSummary) (ai.RepoReview, error) {
	if g.reviewer == nil {
		return ai.RepoReview{}, fmt.Errorf("no repository reviewer configured")
	}
	return g.reviewer.ReviewRepositories(ctx, domain, repos)
}

// summarizeRepos aggregates repository statistics. Forks are skipped since
// they say little about the candidate's own work.
func summarizeRepos(username string, user githubUser, repos []githubRepo) *types.GitHubAnalysis {
	analysis := &types.GitHubAnalysis{
		Username:    username,
		PublicRepos: user.PublicRepos,
		Followers:   user.Followers,
		Languages:   make(map[string]int),
	}

	own := make([]types.RepoSummary, 0, len(repos))
	for _, r := range repos {
		if r.Fork {
			continue
		}
		analysis.TotalStars += r.StargazersCount
		analysis.TotalSize += r.Size
		if r.Language != "" {
			analysis.Languages[r.Language]++
		}
		own = append(own, types.RepoSummary{
			Name:        r.Name,
			Description: r.Description,
			Language:    r.Language,
			Stars:       r.StargazersCount,
			Forks:       r.ForksCount,
			Size:        r.Size,
		})
	}

	slices.SortStableFunc(own, func(a, b types.RepoSummary) int {
		return cmp.Compare(b.Stars, a.Stars)
	})
	if len(own) > topRepositories {
		own = own[:topRepositories]
	}
	analysis.TopRepositories = own
	return analysis
}

var mainstreamLanguages = []string{"Python", "JavaScript", "TypeScript", "Java", "Go", "Rust"}

// heuristicComplexity rates repositories by traction and language
func heuristicComplexity(repos []types.RepoSummary) float64 {
	if len(repos) == 0 {
		return 0
	}
	var total float64
	for _, r := range repos {
		if r.Stars > 10 {
			total += 20
		}
		if r.Forks > 5 {
			total += 15
		}
		if slices.Contains(mainstreamLanguages, r.Language) {
			total += 10
		}
	}
	return min(100, total/float64(len(repos)))
}
