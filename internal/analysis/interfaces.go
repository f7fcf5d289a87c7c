package analysis

import (
	"context"
	"time"

	"candidatelens/internal/types"
)

// ResumeMatcher scores a resume against a job description
type ResumeMatcher interface {
	Match(ctx context.Context, resume types.Resume, job types.JobDescription) (*types.ResumeMatch, error)
}

type GitHubAnalyzer interface {
	Analyze(ctx context.Context, username, domain string) (*types.GitHubAnalysis, error)
}

// LinkedInAnalyzer takes the full profile URL since LinkedIn usernames are not addressable on their own
type LinkedInAnalyzer interface {
	Analyze(ctx context.Context, profileURL, domain string) (*types.LinkedInAnalysis, error)
}

type TwitterAnalyzer interface {
	Analyze(ctx context.Context, username, domain string) (*types.TwitterAnalysis, error)
}

type MediumAnalyzer interface {
	Analyze(ctx context.Context, username, domain string) (*types.MediumAnalysis, error)
}

// ProjectEvaluator inspects one project that has a URL
type ProjectEvaluator interface {
	Evaluate(ctx context.Context, project types.Project, domain string) (types.ProjectEvaluation, error)
}

// CompanyResearcher rates a past employer. Implementations return the
// fallback values from types.FallbackCompanyResearch when a lookup fails.
type CompanyResearcher interface {
	Research(ctx context.Context, company, role string) (types.CompanyResearch, error)
}

// ReportWriter produces the narrative part of the final result
type ReportWriter interface {
	Write(ctx context.Context, snap Snapshot, score Score) (types.Report, error)
}

// Publisher receives progress snapshots. Errors are logged and dropped.
type Publisher interface {
	Publish(ctx context.Context, snap Snapshot) error
}

// Recorder receives run and subtask measurements
type Recorder interface {
	RecordSubtask(ctx context.Context, taskID string, status TaskStatus, elapsed time.Duration)
	RecordRun(ctx context.Context, mode Mode, final *types.FinalResult, elapsed time.Duration)
	RecordRunStarted(ctx context.Context, mode Mode)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(ctx context.Context, snap Snapshot) error

func (f PublisherFunc) Publish(ctx context.Context, snap Snapshot) error { return f(ctx, snap) }

type noopPublisher struct{}

func (noopPublisher) Publish(context.Context, Snapshot) error { return nil }

type noopRecorder struct{}

func (noopRecorder) RecordSubtask(context.Context, string, TaskStatus, time.Duration)  {}
func (noopRecorder) RecordRun(context.Context, Mode, *types.FinalResult, time.Duration) {}
func (noopRecorder) RecordRunStarted(context.Context, Mode)                            {}

// Collaborators are the external services a run calls out to. Any analyzer
// may be nil, in which case its subtask completes without a result.
type Collaborators struct {
	Matcher   ResumeMatcher
	GitHub    GitHubAnalyzer
	LinkedIn  LinkedInAnalyzer
	Twitter   TwitterAnalyzer
	Medium    MediumAnalyzer
	Projects  ProjectEvaluator
	Companies CompanyResearcher
	Reporter  ReportWriter
}
