// Package report turns a scored analysis into the narrative part of the
// final result.
package report

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"candidatelens/internal/ai"
	"candidatelens/internal/analysis"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

const (
	strengthThreshold = 70.0
	concernThreshold  = 50.0
)

// Narrator writes a report from evaluation facts
type Narrator interface {
	WriteReport(ctx context.Context, facts ai.ReportFacts) (types.Report, error)
}

// Writer implements analysis.ReportWriter. It asks the narrator first and
// falls back to a report built from the scores alone.
type Writer struct {
	narrator Narrator
	logger   *errors.Logger
}

var _ analysis.ReportWriter = (*Writer)(nil)

func NewWriter(narrator Narrator, logger *errors.Logger) *Writer {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Writer{narrator: narrator, logger: logger}
}

func (w *Writer) Write(ctx context.Context, snap analysis.Snapshot, score analysis.Score) (types.Report, error) {
	fallback := Deterministic(snap, score)
	if w.narrator == nil {
		return fallback, nil
	}

	rep, err := w.narrator.WriteReport(ctx, Facts(snap, score))
	if err != nil {
		if ctx.Err() != nil {
			return types.Report{}, ctx.Err()
		}
		w.logger.Warn("Narrative report failed, using score summary",
			"analysis_id", snap.AnalysisID,
			"error", err.Error())
		return fallback, nil
	}

	// the model may omit lists; keep the computed ones in that case
	if len(rep.Strengths) == 0 {
		rep.Strengths = fallback.Strengths
	}
	if len(rep.Concerns) == 0 {
		rep.Concerns = fallback.Concerns
	}
	if strings.TrimSpace(rep.ExecutiveSummary) == "" {
		rep.ExecutiveSummary = fallback.ExecutiveSummary
	}
	if strings.TrimSpace(rep.DetailedReport) == "" {
		rep.DetailedReport = fallback.DetailedReport
	}
	return rep, nil
}

// Facts collects what the narrator may base a report on
func Facts(snap analysis.Snapshot, score analysis.Score) ai.ReportFacts {
	sources := map[string]any{}
	r := snap.Results
	if r.ResumeMatch != nil {
		sources["resume_match"] = r.ResumeMatch
	}
	if r.GitHub != nil {
		sources["github"] = r.GitHub
	}
	if r.LinkedIn != nil {
		sources["linkedin"] = r.LinkedIn
	}
	if r.Twitter != nil {
		sources["twitter"] = r.Twitter
	}
	if r.Medium != nil {
		sources["medium"] = r.Medium
	}
	if r.Projects != nil {
		sources["projects"] = r.Projects
	}
	if r.Companies != nil {
		sources["companies"] = r.Companies
	}

	return ai.ReportFacts{
		Candidate:      snap.Resume.Name,
		Role:           snap.JobDescription.Title,
		Company:        snap.JobDescription.Company,
		Domain:         domainOf(snap),
		OverallScore:   score.Overall,
		Recommendation: score.Recommendation,
		ScoreBreakdown: score.SubScores,
		Weights:        snap.Weights,
		Sources:        sources,
		Errors:         snap.ErrorMessages(),
	}
}

// Deterministic builds a report from the scores without calling a model
func Deterministic(snap analysis.Snapshot, score analysis.Score) types.Report {
	var strengths, concerns []string
	for _, key := range analysis.WeightKeys {
		sub, ok := score.SubScores[key]
		if !ok {
			continue
		}
		label := analysis.WeightLabel(key)
		switch {
		case sub >= strengthThreshold:
			strengths = append(strengths, fmt.Sprintf("%s scored %.1f/100", label, sub))
		case sub < concernThreshold:
			concerns = append(concerns, fmt.Sprintf("%s scored %.1f/100", label, sub))
		}
	}
	if m := snap.Results.ResumeMatch; m != nil && len(m.MissingSkills) > 0 {
		concerns = append(concerns, "Missing skills: "+strings.Join(m.MissingSkills, ", "))
	}
	concerns = append(concerns, snap.ErrorMessages()...)

	name := snap.Resume.Name
	if name == "" {
		name = "The candidate"
	}
	summary := fmt.Sprintf("%s scored %.1f/100 for %s. Recommendation: %s.",
		name, score.Overall, roleOf(snap), score.Recommendation)

	return types.Report{
		ExecutiveSummary: summary,
		Strengths:        strengths,
		Concerns:         concerns,
		DetailedReport:   detailed(snap, score, summary),
	}
}

func detailed(snap analysis.Snapshot, score analysis.Score, summary string) string {
	var b strings.Builder
	r := snap.Results

	b.WriteString("# Candidate Analysis Report\n\n")
	fmt.Fprintf(&b, "%s\n\n", summary)
	fmt.Fprintf(&b, "**Domain:** %s\n\n", domainOf(snap))

	b.WriteString("## Score Breakdown\n\n")
	b.WriteString("| Component | Score | Weight |\n|---|---|---|\n")
	for _, key := range analysis.WeightKeys {
		sub, ok := score.SubScores[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "| %s | %.1f | %.0f%% |\n", analysis.WeightLabel(key), sub, snap.Weights[key]*100)
	}

	b.WriteString("\n## Resume Match\n\n")
	if m := r.ResumeMatch; m != nil {
		fmt.Fprintf(&b, "Score %.1f/100. %s\n", m.Score, m.Analysis)
		if len(m.MatchedSkills) > 0 {
			fmt.Fprintf(&b, "\n- Matched skills: %s\n", strings.Join(m.MatchedSkills, ", "))
		}
	} else {
		b.WriteString("Not available.\n")
	}

	b.WriteString("\n## GitHub\n\n")
	if g := r.GitHub; g != nil {
		fmt.Fprintf(&b, "- @%s: %d public repositories, %d followers, %d stars\n", g.Username, g.PublicRepos, g.Followers, g.TotalStars)
		fmt.Fprintf(&b, "- Code quality %.1f, complexity %.1f, domain relevance %.1f\n",
			g.CodeQualityScore, g.ProjectComplexityScore, g.DomainRelevanceScore)
		if len(g.Languages) > 0 {
			langs := make([]string, 0, len(g.Languages))
			for lang := range g.Languages {
				langs = append(langs, lang)
			}
			slices.Sort(langs)
			fmt.Fprintf(&b, "- Languages: %s\n", strings.Join(langs, ", "))
		}
	} else {
		b.WriteString("Not analysed.\n")
	}

	b.WriteString("\n## Professional Presence\n\n")
	if l := r.LinkedIn; l != nil {
		fmt.Fprintf(&b, "- LinkedIn: %d posts, %d technical, %d domain relevant\n", l.PostsAnalyzed, l.TechnicalPosts, l.DomainRelevantPosts)
	}
	if t := r.Twitter; t != nil {
		fmt.Fprintf(&b, "- Twitter @%s: %d followers, %d of %d tweets relevant\n", t.Username, t.Followers, t.RelevantTweets, t.TweetsAnalyzed)
	}
	if m := r.Medium; m != nil {
		fmt.Fprintf(&b, "- Medium @%s: %d articles, %d relevant\n", m.Username, m.Articles, m.RelevantArticles)
	}
	if r.LinkedIn == nil && r.Twitter == nil && r.Medium == nil {
		b.WriteString("No public profiles analysed.\n")
	}

	b.WriteString("\n## Projects\n\n")
	if len(r.Projects) == 0 {
		b.WriteString("No projects evaluated.\n")
	}
	for _, p := range r.Projects {
		if !p.Evaluated {
			fmt.Fprintf(&b, "- %s: no URL provided\n", p.Name)
			continue
		}
		fmt.Fprintf(&b, "- %s: average %.1f (complexity %.1f, performance %.1f, responsiveness %.1f, SEO %.1f)\n",
			p.Name, analysis.ProjectAverage(p), p.ComplexityScore, p.PerformanceScore, p.ResponsivenessScore, p.SEOScore)
	}

	b.WriteString("\n## Work Experience\n\n")
	if len(r.Companies) == 0 {
		b.WriteString("No employers researched.\n")
	}
	for _, c := range r.Companies {
		if c.IsFallback() {
			fmt.Fprintf(&b, "- %s: information unavailable\n", c.Company)
			continue
		}
		fmt.Fprintf(&b, "- %s (%s): difficulty %.1f, reputation %.1f\n", c.Company, c.Tier, c.DifficultyScore, c.ReputationScore)
	}

	if msgs := snap.ErrorMessages(); len(msgs) > 0 {
		b.WriteString("\n## Issues\n\n")
		for _, m := range msgs {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	}
	return b.String()
}

func roleOf(snap analysis.Snapshot) string {
	role := snap.JobDescription.Title
	if role == "" {
		role = "the role"
	}
	if snap.JobDescription.Company != "" {
		role += " at " + snap.JobDescription.Company
	}
	return role
}

func domainOf(snap analysis.Snapshot) string {
	if snap.JobDescription.Domain != "" {
		return snap.JobDescription.Domain
	}
	if m := snap.Results.ResumeMatch; m != nil && m.Domain != "" {
		return m.Domain
	}
	return "not specified"
}
