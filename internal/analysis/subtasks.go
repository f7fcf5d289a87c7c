package analysis

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"candidatelens/internal/types"
)

// ProfileUsername extracts a username from a profile URL or handle: the last
// path segment, without a leading "@". Medium URLs use the text after "@".
func ProfileUsername(profile string) string {
	p := strings.TrimSpace(profile)
	if p == "" {
		return ""
	}
	if i := strings.LastIndex(p, "@"); i >= 0 && strings.Contains(p, "medium.com") {
		p = p[i+1:]
		if j := strings.IndexAny(p, "/?#"); j >= 0 {
			p = p[:j]
		}
		return p
	}
	if u, err := url.Parse(p); err == nil && u.Host != "" {
		if strings.Trim(u.Path, "/") == "" && strings.HasSuffix(u.Host, ".medium.com") {
			return strings.TrimSuffix(u.Host, ".medium.com")
		}
		p = u.Path
	}
	p = strings.Trim(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	return strings.TrimPrefix(p, "@")
}

func scorePtr(v float64) *float64 { return &v }

func (o *Orchestrator) matchTask(ctx context.Context, st *State) (Outcome, error) {
	if o.collab.Matcher == nil {
		return Outcome{}, fmt.Errorf("resume matcher not configured")
	}
	m, err := o.collab.Matcher.Match(ctx, st.Resume(), st.Job())
	if err != nil {
		return Outcome{}, err
	}
	if m == nil {
		return Outcome{}, fmt.Errorf("resume matcher returned no result")
	}
	match := *m
	match.Score = clamp(match.Score, 0, 100)

	notes := []string{fmt.Sprintf("Resume matches the job at %.0f/100", match.Score)}
	if match.Domain != "" {
		notes = append(notes, fmt.Sprintf("Inferred domain: %s", match.Domain))
	}
	if len(match.MissingSkills) > 0 {
		notes = append(notes, fmt.Sprintf("Missing skills: %s", strings.Join(match.MissingSkills, ", ")))
	}
	return Outcome{
		Apply:   func(r *Results) { r.ResumeMatch = &match },
		Score:   scorePtr(match.Score),
		Message: fmt.Sprintf("Match score: %.0f", match.Score),
		Notes:   notes,
	}, nil
}

func (o *Orchestrator) githubTask(ctx context.Context, st *State) (Outcome, error) {
	username := ProfileUsername(st.Resume().Profiles.GitHub)
	if username == "" {
		return Outcome{Message: "No GitHub profile found"}, nil
	}
	if o.collab.GitHub == nil {
		return Outcome{Message: "GitHub analyzer not configured"}, nil
	}
	g, err := o.collab.GitHub.Analyze(ctx, username, st.Domain())
	if err != nil {
		return Outcome{}, err
	}
	res := *g
	score := GitHubScore(res, o.opts.Policy.GitHubBlend)
	return Outcome{
		Apply:   func(r *Results) { r.GitHub = &res },
		Score:   scorePtr(score),
		Message: fmt.Sprintf("Analyzed %d repositories for %s", res.PublicRepos, username),
		Notes: []string{
			fmt.Sprintf("GitHub %s: quality %.0f, complexity %.0f, domain relevance %.0f",
				username, res.CodeQualityScore, res.ProjectComplexityScore, res.DomainRelevanceScore),
		},
	}, nil
}

func (o *Orchestrator) linkedinTask(ctx context.Context, st *State) (Outcome, error) {
	profile := strings.TrimSpace(st.Resume().Profiles.LinkedIn)
	if profile == "" {
		return Outcome{Message: "No LinkedIn profile found"}, nil
	}
	if o.collab.LinkedIn == nil {
		return Outcome{Message: "LinkedIn analyzer not configured"}, nil
	}
	l, err := o.collab.LinkedIn.Analyze(ctx, profile, st.Domain())
	if err != nil {
		return Outcome{}, err
	}
	res := *l
	score := LinkedInScore(res)
	note := fmt.Sprintf("LinkedIn: %d of %d posts relevant to the domain", res.DomainRelevantPosts, res.PostsAnalyzed)
	if res.DomainRelevantPosts == 0 {
		note = "LinkedIn: no domain-relevant posts found, no credit given"
	}
	return Outcome{
		Apply:   func(r *Results) { r.LinkedIn = &res },
		Score:   scorePtr(score),
		Message: fmt.Sprintf("Analyzed %d LinkedIn posts", res.PostsAnalyzed),
		Notes:   []string{note},
	}, nil
}

func (o *Orchestrator) twitterTask(ctx context.Context, st *State) (Outcome, error) {
	username := ProfileUsername(st.Resume().Profiles.Twitter)
	if username == "" {
		return Outcome{Message: "No Twitter profile found"}, nil
	}
	if o.collab.Twitter == nil {
		return Outcome{Message: "Twitter analyzer not configured"}, nil
	}
	t, err := o.collab.Twitter.Analyze(ctx, username, st.Domain())
	if err != nil {
		return Outcome{}, err
	}
	res := *t
	score := TwitterScore(res)
	note := fmt.Sprintf("Twitter @%s: %d relevant of %d tweets, %d followers",
		username, res.RelevantTweets, res.TweetsAnalyzed, res.Followers)
	if score == 0 {
		note = fmt.Sprintf("Twitter @%s: no relevant activity, no credit given", username)
	}
	return Outcome{
		Apply:   func(r *Results) { r.Twitter = &res },
		Score:   scorePtr(score),
		Message: fmt.Sprintf("Analyzed %d tweets", res.TweetsAnalyzed),
		Notes:   []string{note},
	}, nil
}

func (o *Orchestrator) mediumTask(ctx context.Context, st *State) (Outcome, error) {
	username := ProfileUsername(st.Resume().Profiles.Medium)
	if username == "" {
		return Outcome{Message: "No Medium profile found"}, nil
	}
	if o.collab.Medium == nil {
		return Outcome{Message: "Medium analyzer not configured"}, nil
	}
	m, err := o.collab.Medium.Analyze(ctx, username, st.Domain())
	if err != nil {
		return Outcome{}, err
	}
	res := *m
	score := MediumScore(res)
	note := fmt.Sprintf("Medium @%s: %d relevant of %d articles", username, res.RelevantArticles, res.Articles)
	if score == 0 {
		note = fmt.Sprintf("Medium @%s: no on-topic articles, no credit given", username)
	}
	return Outcome{
		Apply:   func(r *Results) { r.Medium = &res },
		Score:   scorePtr(score),
		Message: fmt.Sprintf("Analyzed %d articles", res.Articles),
		Notes:   []string{note},
	}, nil
}

func (o *Orchestrator) projectsTask(ctx context.Context, st *State) (Outcome, error) {
	projects := st.Resume().Projects
	domain := st.Domain()
	evals := make([]types.ProjectEvaluation, 0, len(projects))
	var notes []string

	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}
		if strings.TrimSpace(p.URL) == "" {
			evals = append(evals, types.ProjectEvaluation{
				Name:  p.Name,
				Notes: []string{"No URL provided"},
			})
			notes = append(notes, fmt.Sprintf("Project %s has no URL, partial credit given", p.Name))
			continue
		}
		if o.collab.Projects == nil {
			evals = append(evals, types.ProjectEvaluation{
				Name:  p.Name,
				URL:   p.URL,
				Notes: []string{"Project evaluator not configured"},
			})
			notes = append(notes, fmt.Sprintf("Project %s not evaluated, evaluator not configured, partial credit given", p.Name))
			continue
		}
		ev, err := o.collab.Projects.Evaluate(ctx, p, domain)
		if err != nil {
			ev = types.ProjectEvaluation{
				Name:       p.Name,
				URL:        p.URL,
				Evaluated:  true,
				ErrorCount: 1,
				Notes:      []string{err.Error()},
			}
			notes = append(notes, fmt.Sprintf("Project %s could not be evaluated: %v", p.Name, err))
		} else {
			ev.Evaluated = true
			notes = append(notes, fmt.Sprintf("Project %s scored %.0f", p.Name, ProjectAverage(ev)))
		}
		evals = append(evals, ev)
	}

	score := PortfolioScore(evals, o.opts.Policy.ProjectPartialCredit)
	msg := fmt.Sprintf("Evaluated %d projects", len(evals))
	if len(evals) == 0 {
		msg = "No projects listed"
	}
	return Outcome{
		Apply:   func(r *Results) { r.Projects = evals },
		Score:   scorePtr(score),
		Message: msg,
		Notes:   notes,
	}, nil
}

func (o *Orchestrator) companiesTask(ctx context.Context, st *State) (Outcome, error) {
	if o.collab.Companies == nil {
		return Outcome{Message: "Company researcher not configured"}, nil
	}

	seen := make(map[string]bool)
	research := make([]types.CompanyResearch, 0)
	var notes []string
	for _, exp := range st.Resume().Experience {
		name := strings.TrimSpace(exp.Company)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		c, err := o.collab.Companies.Research(ctx, name, exp.Position)
		if err != nil {
			c = types.FallbackCompanyResearch(name, exp.Position)
		}
		if c.IsFallback() {
			notes = append(notes, fmt.Sprintf("Could not research %s, applying lookup penalty", name))
		} else {
			notes = append(notes, fmt.Sprintf("%s: %s, difficulty %.0f, reputation %.0f",
				name, c.Tier, c.DifficultyScore, c.ReputationScore))
		}
		research = append(research, c)
	}

	score := ExperienceScore(research, o.opts.Policy.CompanyLookupPenalty)
	return Outcome{
		Apply:   func(r *Results) { r.Companies = research },
		Score:   scorePtr(score),
		Message: fmt.Sprintf("Researched %d companies", len(research)),
		Notes:   notes,
	}, nil
}

func (o *Orchestrator) finalTask(ctx context.Context, st *State) (Outcome, error) {
	snap := st.Snapshot()
	score := o.aggregator.Aggregate(snap.Results, snap.Weights)
	final := score.FinalResult(snap.Weights)

	report := basicReport(score)
	if o.collab.Reporter != nil {
		rep, err := o.collab.Reporter.Write(ctx, snap, score)
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{}, ctx.Err()
			}
			o.logger.Warn("Report generation failed, using summary", "analysis_id", snap.AnalysisID, "error", err.Error())
		} else {
			report = rep
		}
	}
	final.Report = report

	return Outcome{
		Final:   final,
		Score:   scorePtr(score.Overall),
		Message: fmt.Sprintf("Overall score %.1f: %s", score.Overall, score.Recommendation),
		Notes:   []string{fmt.Sprintf("Final score %.1f, recommendation %s", score.Overall, score.Recommendation)},
	}, nil
}

func basicReport(score Score) types.Report {
	summary := fmt.Sprintf("Overall score %.1f/100. Recommendation: %s.", score.Overall, score.Recommendation)
	return types.Report{ExecutiveSummary: summary, DetailedReport: summary}
}
