package ai

import (
	"fmt"

	"candidatelens/internal/config"
)

// Prompt is a system instruction plus a user template. User templates are
// fmt format strings; the verbs each one takes are listed in defaultPrompts.
type Prompt struct {
	System string
	User   string
}

const jsonOnly = "Respond with a single JSON object and nothing else."

// defaultPrompts are the built-in prompts, keyed by the names used for
// overrides in the ai.prompts configuration section.
var defaultPrompts = map[string]Prompt{
	// args: resume JSON, job description JSON
	config.PromptResumeMatch: {
		System: `You are an experienced technical recruiter. You compare a candidate's resume with a job description and judge how well the candidate fits the role.

- Base every judgement on what the resume actually states
- Do not reward keyword stuffing; weigh depth and recency of experience
- Infer the technical domain of the role (for example "backend engineering", "machine learning", "mobile development")

` + jsonOnly,
		User: `Score the fit between this resume and job description from 0 to 100.

Return JSON with:
- score: number from 0 to 100
- analysis: two or three sentences explaining the score
- domain: the technical domain of the role
- matched_skills: required or preferred skills the candidate demonstrably has
- missing_skills: required skills the resume does not show

**Resume:**
-----
%s
-----

**Job Description:**
-----
%s
-----`,
	},

	// args: domain, repository list
	config.PromptGitHubReview: {
		System: `You review GitHub profiles for hiring managers. You only see repository metadata (names, descriptions, languages, stars, forks, size) and rate what it reveals.

` + jsonOnly,
		User: `Rate these repositories for a candidate applying to a %s role.

Return JSON with:
- code_quality: 0-100, judged from naming, descriptions and apparent structure
- complexity: 0-100, how technically demanding the projects look
- domain_relevance: 0-100, how relevant the projects are to the domain
- summary: one sentence

**Repositories:**
%s`,
	},

	// args: domain, posts separated by ---
	config.PromptLinkedInPosts: {
		System: "You classify LinkedIn posts written by a job candidate by technical content.\n\n" + jsonOnly,
		User:   classifyTemplate("LinkedIn posts", "posts"),
	},

	// args: domain, tweets separated by ---
	config.PromptTwitterPosts: {
		System: "You classify tweets written by a job candidate by technical content.\n\n" + jsonOnly,
		User:   classifyTemplate("tweets", "tweets"),
	},

	// args: domain, articles separated by ---
	config.PromptMediumArticles: {
		System: "You classify technical blog articles written by a job candidate.\n\n" + jsonOnly,
		User:   classifyTemplate("Medium articles", "articles"),
	},

	// args: project name, description, technologies, page text preview
	config.PromptProjectComplexity: {
		System: `You estimate the technical complexity of a software project from its description and the text of its live site.

` + jsonOnly,
		User: `Rate the complexity of this project from 0 to 100, considering features, functionality and technical implementation.

Return JSON with:
- complexity_score: number from 0 to 100
- notes: up to three short observations

Project: %s
Description: %s
Technologies: %s
Page content preview:
-----
%s
-----`,
	},

	// args: company, role
	config.PromptCompanyResearch: {
		System: `You are an analyst who knows the technology labour market. You rate employers on a candidate's resume.

Tiers:
- "FAANG": Facebook/Meta, Apple, Amazon, Netflix, Google
- "Big Tech": Microsoft, Tesla, Uber, Airbnb and peers
- "Unicorn": private companies valued above $1B
- "Large Enterprise": established large companies
- "Mid-size": medium-sized companies
- "Startup": early-stage companies
- "Unknown": cannot determine

If you have no specific information, make a reasonable estimate from the company name.

` + jsonOnly,
		User: `Company: %s
Role held: %s

Return JSON with:
- difficulty_score: 0-100, how hard it is to get this role at this company (100 is extremely difficult)
- tier: one of the tier names above
- reputation_score: 0-100, market reputation of the company
- reasoning: one sentence`,
	},

	// args: candidate facts JSON
	config.PromptFinalReport: {
		System: `You write hiring reports for engineering managers. You are factual, balanced and concise. You never invent facts that are not in the data you are given.

` + jsonOnly,
		User: `Write the final evaluation report for this candidate. The overall score and recommendation are already decided; explain them, do not change them.

Return JSON with:
- executive_summary: a short paragraph
- strengths: list of strengths backed by the data
- concerns: list of concerns or gaps
- detailed_report: a markdown report covering every analysed source

**Evaluation data:**
-----
%s
-----`,
	},
}

func classifyTemplate(what, noun string) string {
	return fmt.Sprintf(`Classify these %s for a candidate applying to a %%s role.

Return JSON with:
- technical_count: number of technical %s
- domain_relevant: number of %s relevant to the domain
- relevance_score: overall relevance to the domain, 0-100
- topics: up to five recurring technical topics

**%s:**
%%s`, what, noun, noun, what)
}

// promptFor returns the prompt to use for name, preferring configured overrides.
// An override may replace only one half of the prompt.
func promptFor(store *config.PromptStore, name string) Prompt {
	p := defaultPrompts[name]
	if store == nil {
		return p
	}
	if override, ok := store.Get(name); ok {
		if override.System != "" {
			p.System = override.System
		}
		if override.User != "" {
			p.User = override.User
		}
	}
	return p
}

// DefaultPrompt exposes a built-in prompt, mostly for tooling that writes override files
func DefaultPrompt(name string) (Prompt, bool) {
	p, ok := defaultPrompts[name]
	return p, ok
}
