package analyzers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"candidatelens/internal/ai"
	"candidatelens/internal/config"
	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// ComplexityAssessor estimates how demanding a project is to build
type ComplexityAssessor interface {
	AssessProjectComplexity(ctx context.Context, project types.Project, pageText string) (ai.ProjectComplexity, error)
}

// Projects inspects the live site of a project
type Projects struct {
	client   *Client
	cfg      config.ProjectsConfig
	assessor ComplexityAssessor
	logger   *errors.Logger
}

func NewProjects(client *Client, cfg config.ProjectsConfig, assessor ComplexityAssessor, logger *errors.Logger) *Projects {
	if logger == nil {
		logger = errors.Discard()
	}
	return &Projects{client: client, cfg: cfg, assessor: assessor, logger: logger}
}

// Evaluate fetches project.URL and scores it. A fetch failure or a non-2xx
// response is returned as an error.
func (p *Projects) Evaluate(ctx context.Context, project types.Project, domain string) (types.ProjectEvaluation, error) {
	target, err := normalizeProfileURL(project.URL)
	if err != nil {
		return types.ProjectEvaluation{}, err
	}

	page, err := p.client.Fetch(ctx, target, map[string]string{"Accept": "text/html"}, p.cfg.MaxPageBytes)
	if err != nil {
		return types.ProjectEvaluation{}, err
	}
	if err := checkStatus(target, page.StatusCode); err != nil {
		return types.ProjectEvaluation{}, err
	}

	doc, err := parseHTML(page.Body)
	if err != nil {
		return types.ProjectEvaluation{}, errors.NewValidationError(errors.ErrCodeInvalidFormat, "unreadable project page", err)
	}

	eval := types.ProjectEvaluation{
		Name:                project.Name,
		URL:                 project.URL,
		Evaluated:           true,
		PerformanceScore:    performanceScore(doc, page.Elapsed, len(page.Body), page.Truncated),
		ResponsivenessScore: responsivenessScore(doc),
		SEOScore:            seoScore(doc),
		ErrorCount:          countPageErrors(doc),
	}
	if tech := detectTechnologies(doc, page.Body); len(tech) > 0 {
		eval.Notes = append(eval.Notes, "Detected: "+strings.Join(tech, ", "))
	}

	complexity, err := p.assess(ctx, project, textContent(doc))
	if err != nil {
		if ctx.Err() != nil {
			return types.ProjectEvaluation{}, ctx.Err()
		}
		p.logger.Warn("Project complexity assessment failed", "project", project.Name, "error", err.Error())
		complexity = ai.ProjectComplexity{ComplexityScore: ai.NeutralScore, Notes: []string{ai.UnparsedRationale}}
	}
	eval.ComplexityScore = complexity.ComplexityScore
	eval.Notes = append(eval.Notes, complexity.Notes...)

	p.logger.Debug("Project evaluated",
		"project", project.Name,
		"domain", domain,
		"elapsed", page.Elapsed,
		"bytes", len(page.Body))
	return eval, nil
}

func (p *Projects) assess(ctx context.Context, project types.Project, pageText string) (ai.ProjectComplexity, error) {
	if p.assessor == nil {
		return ai.ProjectComplexity{}, fmt.Errorf("no complexity assessor configured")
	}
	return p.assessor.AssessProjectComplexity(ctx, project, pageText)
}

// performanceScore starts at 100 and deducts for slow responses and heavy pages
func performanceScore(doc *html.Node, elapsed time.Duration, size int, truncated bool) float64 {
	score := 100.0

	switch {
	case elapsed > 3*time.Second:
		score -= 30
	case elapsed > time.Second:
		score -= 15
	}
	if len(findAll(doc, isElement(atom.Script))) > 10 {
		score -= 20
	}
	stylesheets := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Link && strings.EqualFold(attrValue(n, "rel"), "stylesheet")
	})
	if len(stylesheets) > 5 {
		score -= 10
	}
	large := 0
	for _, img := range findAll(doc, isElement(atom.Img)) {
		src := attrValue(img, "src")
		if src != "" && !strings.Contains(src, "thumb") && !strings.Contains(src, "small") && !strings.Contains(src, "compressed") {
			large++
		}
	}
	if large > 10 {
		score -= 15
	}
	inline := findAll(doc, func(n *html.Node) bool {
		_, ok := attr(n, "style")
		return ok
	})
	if len(inline) > 20 {
		score -= 10
	}
	if truncated || size > 1<<20 {
		score -= 10
	}
	return max(0, score)
}

func responsivenessScore(doc *html.Node) float64 {
	score := 0.0

	if _, ok := metaContent(doc, "viewport"); ok {
		score += 30
	}
	for _, s := range findAll(doc, isElement(atom.Style)) {
		if strings.Contains(textOf(s), "@media") {
			score += 20
			break
		}
	}
	responsive := []string{"responsive", "mobile", "tablet", "desktop", "col-", "row-"}
	if len(findAll(doc, func(n *html.Node) bool { return hasClass(n, responsive...) })) > 0 {
		score += 10
	}
	if len(findAll(doc, func(n *html.Node) bool { return n.DataAtom == atom.Img && hasClass(n, "responsive") })) > 0 {
		score += 20
	}
	if len(findAll(doc, func(n *html.Node) bool { return hasClass(n, "col-", "row", "container") })) > 0 {
		score += 20
	}
	return min(100, score)
}

func seoScore(doc *html.Node) float64 {
	score := 0.0

	if titles := findAll(doc, isElement(atom.Title)); len(titles) > 0 && textContent(titles[0]) != "" {
		score += 20
	}
	if desc, ok := metaContent(doc, "description"); ok && strings.TrimSpace(desc) != "" {
		score += 20
	}
	if len(findAll(doc, isElement(atom.H1))) > 0 {
		score += 15
	}
	images := findAll(doc, isElement(atom.Img))
	withAlt := 0
	for _, img := range images {
		if _, ok := attr(img, "alt"); ok {
			withAlt++
		}
	}
	if len(images) > 0 && float64(withAlt)/float64(len(images)) > 0.5 {
		score += 15
	}
	if _, ok := metaContent(doc, "keywords"); ok {
		score += 10
	}
	canonical := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Link && strings.EqualFold(attrValue(n, "rel"), "canonical")
	})
	if len(canonical) > 0 {
		score += 10
	}
	structured := findAll(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Script && strings.EqualFold(attrValue(n, "type"), "application/ld+json")
	})
	if len(structured) > 0 {
		score += 10
	}
	return min(100, score)
}

// countPageErrors counts images without a source or alt text and dead links
func countPageErrors(doc *html.Node) int {
	count := 0
	for _, img := range findAll(doc, isElement(atom.Img)) {
		if attrValue(img, "src") == "" {
			count++
		}
		if attrValue(img, "alt") == "" {
			count++
		}
	}
	for _, a := range findAll(doc, isElement(atom.A)) {
		if href := strings.TrimSpace(attrValue(a, "href")); href == "" || href == "#" {
			count++
		}
	}
	return count
}

func detectTechnologies(doc *html.Node, body []byte) []string {
	var tech []string
	add := func(name string) {
		if !slices.Contains(tech, name) {
			tech = append(tech, name)
		}
	}

	for _, s := range findAll(doc, isElement(atom.Script)) {
		src := strings.ToLower(attrValue(s, "src"))
		switch {
		case src == "":
		case strings.Contains(src, "react"):
			add("React")
		case strings.Contains(src, "angular"):
			add("Angular")
		case strings.Contains(src, "vue"):
			add("Vue.js")
		case strings.Contains(src, "jquery"):
			add("jQuery")
		case strings.Contains(src, "bootstrap"):
			add("Bootstrap")
		}
	}

	lower := strings.ToLower(string(body))
	if strings.Contains(lower, "next.js") || strings.Contains(string(body), "_next") {
		add("Next.js")
	}
	if strings.Contains(lower, "nuxt") {
		add("Nuxt.js")
	}
	if strings.Contains(lower, "tailwind") {
		add("TailwindCSS")
	}

	if gen, ok := metaContent(doc, "generator"); ok {
		gen = strings.ToLower(gen)
		switch {
		case strings.Contains(gen, "wordpress"):
			add("WordPress")
		case strings.Contains(gen, "django"):
			add("Django")
		case strings.Contains(gen, "flask"):
			add("Flask")
		}
	}
	return tech
}

// textOf returns the raw text children of n, including script and style bodies
func textOf(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
