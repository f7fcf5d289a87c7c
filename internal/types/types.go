package types

// Resume is the structured candidate input
type Resume struct {
	Name       string       `json:"name" yaml:"name"`
	Email      string       `json:"email,omitempty" yaml:"email"`
	Phone      string       `json:"phone,omitempty" yaml:"phone"`
	Summary    string       `json:"summary,omitempty" yaml:"summary"`
	Skills     []string     `json:"skills,omitempty" yaml:"skills"`
	Experience []Experience `json:"experience,omitempty" yaml:"experience"`
	Education  []Education  `json:"education,omitempty" yaml:"education"`
	Projects   []Project    `json:"projects,omitempty" yaml:"projects"`
	Profiles   Profiles     `json:"profiles" yaml:"profiles"`
}

// Experience is one position held by the candidate
type Experience struct {
	Company      string   `json:"company" yaml:"company"`
	Position     string   `json:"position" yaml:"position"`
	Duration     string   `json:"duration,omitempty" yaml:"duration"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies"`
}

type Education struct {
	Institution string `json:"institution" yaml:"institution"`
	Degree      string `json:"degree,omitempty" yaml:"degree"`
	Field       string `json:"field,omitempty" yaml:"field"`
	Year        string `json:"year,omitempty" yaml:"year"`
}

// Project is a candidate-listed project. URL is the deployed artifact used for evaluation.
type Project struct {
	Name         string   `json:"name" yaml:"name"`
	Description  string   `json:"description,omitempty" yaml:"description"`
	Technologies []string `json:"technologies,omitempty" yaml:"technologies"`
	URL          string   `json:"url,omitempty" yaml:"url"`
	GitHubURL    string   `json:"github_url,omitempty" yaml:"github_url"`
}

// Profiles holds the candidate's public profile URLs. Empty means not provided.
type Profiles struct {
	GitHub    string `json:"github,omitempty" yaml:"github"`
	LinkedIn  string `json:"linkedin,omitempty" yaml:"linkedin"`
	Twitter   string `json:"twitter,omitempty" yaml:"twitter"`
	Medium    string `json:"medium,omitempty" yaml:"medium"`
	Portfolio string `json:"portfolio,omitempty" yaml:"portfolio"`
}

// JobDescription is the role the candidate is evaluated against
type JobDescription struct {
	Title           string   `json:"title" yaml:"title"`
	Company         string   `json:"company,omitempty" yaml:"company"`
	Description     string   `json:"description" yaml:"description"`
	Requirements    []string `json:"requirements,omitempty" yaml:"requirements"`
	PreferredSkills []string `json:"preferred_skills,omitempty" yaml:"preferred_skills"`
	ExperienceLevel string   `json:"experience_level,omitempty" yaml:"experience_level"`
	Domain          string   `json:"domain,omitempty" yaml:"domain"`
}

// ResumeMatch is the structured output of the resume / job description match
type ResumeMatch struct {
	Score         float64  `json:"score"`
	Analysis      string   `json:"analysis"`
	Domain        string   `json:"domain,omitempty"`
	MatchedSkills []string `json:"matched_skills,omitempty"`
	MissingSkills []string `json:"missing_skills,omitempty"`
}

type RepoSummary struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	Size        int    `json:"size"`
}

type GitHubAnalysis struct {
	Username               string         `json:"username"`
	PublicRepos            int            `json:"public_repos"`
	Followers              int            `json:"followers"`
	TotalStars             int            `json:"total_stars"`
	TotalSize              int            `json:"total_size"`
	Languages              map[string]int `json:"languages,omitempty"`
	TopRepositories        []RepoSummary  `json:"top_repositories,omitempty"`
	CodeQualityScore       float64        `json:"code_quality_score"`
	ProjectComplexityScore float64        `json:"project_complexity_score"`
	DomainRelevanceScore   float64        `json:"domain_relevance_score"`
}

type LinkedInAnalysis struct {
	ProfileURL           string   `json:"profile_url"`
	PostsAnalyzed        int      `json:"posts_analyzed"`
	TechnicalPosts       int      `json:"technical_posts"`
	DomainRelevantPosts  int      `json:"domain_relevant_posts"`
	DomainRelevanceScore float64  `json:"domain_relevance_score"`
	Topics               []string `json:"topics,omitempty"`
}

type TwitterAnalysis struct {
	Username             string  `json:"username"`
	Followers            int     `json:"followers"`
	TweetsAnalyzed       int     `json:"tweets_analyzed"`
	TechnicalTweets      int     `json:"technical_tweets"`
	RelevantTweets       int     `json:"relevant_tweets"`
	DomainRelevanceScore float64 `json:"domain_relevance_score"`
}

type MediumAnalysis struct {
	Username             string   `json:"username"`
	Articles             int      `json:"articles"`
	TechnicalArticles    int      `json:"technical_articles"`
	RelevantArticles     int      `json:"relevant_articles"`
	DomainRelevanceScore float64  `json:"domain_relevance_score"`
	Titles               []string `json:"titles,omitempty"`
}

// ProjectEvaluation is the result for one project. Evaluated is false when
// the project had no URL to inspect.
type ProjectEvaluation struct {
	Name                string   `json:"name"`
	URL                 string   `json:"url,omitempty"`
	Evaluated           bool     `json:"evaluated"`
	ComplexityScore     float64  `json:"complexity_score"`
	PerformanceScore    float64  `json:"performance_score"`
	ResponsivenessScore float64  `json:"responsiveness_score"`
	SEOScore            float64  `json:"seo_score"`
	ErrorCount          int      `json:"error_count"`
	Notes               []string `json:"notes,omitempty"`
}

// Company tiers
const (
	TierFAANG           = "FAANG"
	TierBigTech         = "Big Tech"
	TierUnicorn         = "Unicorn"
	TierLargeEnterprise = "Large Enterprise"
	TierMidSize         = "Mid-size"
	TierStartup         = "Startup"
	TierUnknown         = "Unknown"
)

// Values a company researcher reports when the lookup could not be done
const (
	FallbackDifficultyScore = 50.0
	FallbackReputationScore = 50.0
	FallbackTier            = TierUnknown
)

type CompanyResearch struct {
	Company         string  `json:"company"`
	Role            string  `json:"role,omitempty"`
	DifficultyScore float64 `json:"difficulty_score"`
	Tier            string  `json:"tier"`
	ReputationScore float64 `json:"reputation_score"`
	Reasoning       string  `json:"reasoning,omitempty"`
}

// IsFallback reports whether c carries exactly the lookup-failure values
func (c CompanyResearch) IsFallback() bool {
	return c.DifficultyScore == FallbackDifficultyScore &&
		c.ReputationScore == FallbackReputationScore &&
		c.Tier == FallbackTier
}

// FallbackCompanyResearch is what a researcher returns when it cannot look a company up
func FallbackCompanyResearch(company, role string) CompanyResearch {
	return CompanyResearch{
		Company:         company,
		Role:            role,
		DifficultyScore: FallbackDifficultyScore,
		Tier:            FallbackTier,
		ReputationScore: FallbackReputationScore,
		Reasoning:       "Company information unavailable",
	}
}

// Report is the narrative part of a final result
type Report struct {
	ExecutiveSummary string   `json:"executive_summary"`
	Strengths        []string `json:"strengths,omitempty"`
	Concerns         []string `json:"concerns,omitempty"`
	DetailedReport   string   `json:"detailed_report"`
}

// FinalResult is the terminal output of one analysis run
type FinalResult struct {
	OverallScore   float64            `json:"overall_score"`
	Recommendation string             `json:"recommendation"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown"`
	Weights        map[string]float64 `json:"weights"`
	Incomplete     bool               `json:"incomplete"`
	Report
}
