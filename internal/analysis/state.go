package analysis

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// RunStatus is the lifecycle of a whole run. There is no failed terminal state.
type RunStatus string

const (
	RunCreated   RunStatus = "created"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
)

// Results holds one slot per subtask kind. A nil slot means the subtask has
// not produced a result. Projects and Companies are non-nil (possibly empty)
// once their subtask completed.
type Results struct {
	ResumeMatch *types.ResumeMatch        `json:"resume_match,omitempty"`
	GitHub      *types.GitHubAnalysis     `json:"github_analysis,omitempty"`
	LinkedIn    *types.LinkedInAnalysis   `json:"linkedin_analysis,omitempty"`
	Twitter     *types.TwitterAnalysis    `json:"twitter_analysis,omitempty"`
	Medium      *types.MediumAnalysis     `json:"medium_analysis,omitempty"`
	Projects    []types.ProjectEvaluation `json:"project_evaluations,omitempty"`
	Companies   []types.CompanyResearch   `json:"company_research,omitempty"`
}

func (r Results) clone() Results {
	c := Results{}
	if r.ResumeMatch != nil {
		v := *r.ResumeMatch
		v.MatchedSkills = slices.Clone(v.MatchedSkills)
		v.MissingSkills = slices.Clone(v.MissingSkills)
		c.ResumeMatch = &v
	}
	if r.GitHub != nil {
		v := *r.GitHub
		v.Languages = maps.Clone(v.Languages)
		v.TopRepositories = slices.Clone(v.TopRepositories)
		c.GitHub = &v
	}
	if r.LinkedIn != nil {
		v := *r.LinkedIn
		v.Topics = slices.Clone(v.Topics)
		c.LinkedIn = &v
	}
	if r.Twitter != nil {
		v := *r.Twitter
		c.Twitter = &v
	}
	if r.Medium != nil {
		v := *r.Medium
		v.Titles = slices.Clone(v.Titles)
		c.Medium = &v
	}
	if r.Projects != nil {
		c.Projects = make([]types.ProjectEvaluation, len(r.Projects))
		for i, p := range r.Projects {
			p.Notes = slices.Clone(p.Notes)
			c.Projects[i] = p
		}
	}
	if r.Companies != nil {
		c.Companies = slices.Clone(r.Companies)
	}
	return c
}

// Note is one entry of the human-readable reasoning log streamed to clients
type Note struct {
	TaskID string    `json:"task_id"`
	Text   string    `json:"text"`
	At     time.Time `json:"at"`
}

// State is the mutable aggregate of one analysis run. All access goes through
// its methods; observers get deep copies from Snapshot.
type State struct {
	mu sync.RWMutex

	id            string
	resume        types.Resume
	job           types.JobDescription
	weights       map[string]float64
	customWeights map[string]float64
	preset        string
	mode          Mode
	createdAt     time.Time
	updatedAt     time.Time

	status   RunStatus
	progress []TaskRecord
	results  Results
	errs     []TaskError
	notes    []Note
	final    *types.FinalResult

	logger *errors.Logger
	now    func() time.Time
}

// StateParams describes a new run
type StateParams struct {
	ID            string
	Resume        types.Resume
	Job           types.JobDescription
	Weights       map[string]float64
	CustomWeights map[string]float64
	Preset        string
	Mode          Mode
	Tasks         []TaskDef
}

// NewState builds the initial state with one pending TaskRecord per task
func NewState(p StateParams, logger *errors.Logger) *State {
	if logger == nil {
		logger = errors.Discard()
	}
	tasks := p.Tasks
	if tasks == nil {
		tasks = DefaultTasks
	}
	progress := make([]TaskRecord, 0, len(tasks))
	for _, def := range tasks {
		progress = append(progress, newTaskRecord(def))
	}

	now := time.Now()
	return &State{
		id:            p.ID,
		resume:        p.Resume,
		job:           p.Job,
		weights:       maps.Clone(p.Weights),
		customWeights: maps.Clone(p.CustomWeights),
		preset:        p.Preset,
		mode:          p.Mode,
		createdAt:     now,
		updatedAt:     now,
		status:        RunCreated,
		progress:      progress,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *State) ID() string { return s.id }

func (s *State) Resume() types.Resume { return s.resume }

func (s *State) Job() types.JobDescription { return s.job }

// Weights returns a copy of the effective weight table
func (s *State) Weights() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.weights)
}

// Domain is the job's declared domain, or the one inferred by the resume match
func (s *State) Domain() string {
	if d := strings.TrimSpace(s.job.Domain); d != "" {
		return d
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.results.ResumeMatch != nil && s.results.ResumeMatch.Domain != "" {
		return s.results.ResumeMatch.Domain
	}
	if s.job.Title != "" {
		return s.job.Title
	}
	return "software engineering"
}

// Transition moves a task to a new status. Unknown ids and illegal
// transitions are ignored and reported by a false return.
func (s *State) Transition(taskID string, to TaskStatus, message string, score *float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.progress {
		if s.progress[i].TaskID != taskID {
			continue
		}
		if err := s.progress[i].apply(to, message, score, s.now()); err != nil {
			s.logger.Debug("Ignoring task transition", "analysis_id", s.id, "reason", err.Error())
			return false
		}
		s.updatedAt = s.now()
		return true
	}
	s.logger.Debug("Ignoring transition for unknown task", "analysis_id", s.id, "task_id", taskID)
	return false
}

// TaskStatus returns the current status of a task
func (s *State) TaskStatus(taskID string) (TaskStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.progress {
		if r.TaskID == taskID {
			return r.Status, true
		}
	}
	return "", false
}

func (s *State) taskName(taskID string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.progress {
		if r.TaskID == taskID {
			return r.TaskName
		}
	}
	return taskID
}

// AppendError adds to the append-only error log
func (s *State) AppendError(e TaskError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.At.IsZero() {
		e.At = s.now()
	}
	s.errs = append(s.errs, e)
	s.updatedAt = s.now()
}

// AddNote appends a reasoning note for a task
func (s *State) AddNote(taskID, text string) {
	if text == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, Note{TaskID: taskID, Text: text, At: s.now()})
}

// Update mutates the result slots under the write lock
func (s *State) Update(fn func(r *Results)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.results)
	s.updatedAt = s.now()
}

// SetFinal stores the final result and marks the run completed. Only the
// first call has any effect, and it is refused while the final score task
// is still open.
func (s *State) SetFinal(res *types.FinalResult) bool {
	if res == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.final != nil {
		return false
	}
	for _, r := range s.progress {
		if r.TaskID == TaskFinalScore && !r.Status.Terminal() {
			s.logger.Debug("Ignoring final result before final score task ended", "analysis_id", s.id)
			return false
		}
	}
	s.final = res
	s.status = RunCompleted
	s.updatedAt = s.now()
	return true
}

func (s *State) setRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == RunCreated {
		s.status = RunRunning
		s.updatedAt = s.now()
	}
}

// Status returns the run status
func (s *State) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Snapshot is an immutable deep copy of a State
type Snapshot struct {
	AnalysisID     string               `json:"analysis_id"`
	Status         RunStatus            `json:"status"`
	Resume         types.Resume         `json:"resume"`
	JobDescription types.JobDescription `json:"job_description"`
	Progress       []TaskRecord         `json:"progress"`
	Results        Results              `json:"results"`
	Weights        map[string]float64   `json:"weights"`
	CustomWeights  map[string]float64   `json:"custom_weights,omitempty"`
	Preset         string               `json:"preset,omitempty"`
	Mode           Mode                 `json:"mode"`
	Errors         []TaskError          `json:"errors"`
	Notes          []Note               `json:"thinking,omitempty"`
	FinalResult    *types.FinalResult   `json:"final_result,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// Snapshot copies the state under the read lock
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	progress := make([]TaskRecord, len(s.progress))
	for i, r := range s.progress {
		progress[i] = r.clone()
	}

	var final *types.FinalResult
	if s.final != nil {
		f := *s.final
		f.ScoreBreakdown = maps.Clone(f.ScoreBreakdown)
		f.Weights = maps.Clone(f.Weights)
		f.Strengths = slices.Clone(f.Strengths)
		f.Concerns = slices.Clone(f.Concerns)
		final = &f
	}

	errs := slices.Clone(s.errs)
	if errs == nil {
		errs = []TaskError{}
	}

	return Snapshot{
		AnalysisID:     s.id,
		Status:         s.status,
		Resume:         s.resume,
		JobDescription: s.job,
		Progress:       progress,
		Results:        s.results.clone(),
		Weights:        maps.Clone(s.weights),
		CustomWeights:  maps.Clone(s.customWeights),
		Preset:         s.preset,
		Mode:           s.mode,
		Errors:         errs,
		Notes:          slices.Clone(s.notes),
		FinalResult:    final,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	}
}

// Completed reports whether the run reached its terminal state
func (s Snapshot) Completed() bool { return s.FinalResult != nil }

// Task looks up a task record by id
func (s Snapshot) Task(taskID string) (TaskRecord, bool) {
	for _, r := range s.Progress {
		if r.TaskID == taskID {
			return r, true
		}
	}
	return TaskRecord{}, false
}

// ErrorMessages renders the error log as text
func (s Snapshot) ErrorMessages() []string {
	out := make([]string, 0, len(s.Errors))
	for _, e := range s.Errors {
		out = append(out, e.Error())
	}
	return out
}

// OverallProgress is the share of tasks in a terminal state, 0-100
func (s Snapshot) OverallProgress() float64 {
	if len(s.Progress) == 0 {
		return 0
	}
	done := 0
	for _, r := range s.Progress {
		if r.Status.Terminal() {
			done++
		}
	}
	return float64(done) * 100 / float64(len(s.Progress))
}
