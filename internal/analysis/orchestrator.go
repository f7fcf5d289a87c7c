package analysis

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"candidatelens/internal/errors"
	"candidatelens/internal/store"
	"candidatelens/internal/types"

	"github.com/google/uuid"
)

// Mode selects how analyzer subtasks are scheduled
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeGraph      Mode = "graph"
)

// ParseMode accepts "" as the sequential default
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSequential:
		return ModeSequential, nil
	case ModeGraph:
		return ModeGraph, nil
	default:
		return "", errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("unknown analysis mode %q (use sequential or graph)", s), nil)
	}
}

// Options configures an Orchestrator
type Options struct {
	Mode               Mode
	SubtaskTimeout     time.Duration
	AggregationTimeout time.Duration
	RunTimeout         time.Duration
	MaxParallel        int
	Policy             ScoringPolicy
	Weights            *WeightResolver
}

func DefaultOptions() Options {
	resolver, _ := NewWeightResolver(DefaultWeights(), nil)
	return Options{
		Mode:               ModeSequential,
		SubtaskTimeout:     60 * time.Second,
		AggregationTimeout: 120 * time.Second,
		RunTimeout:         300 * time.Second,
		MaxParallel:        4,
		Policy:             DefaultPolicy(),
		Weights:            resolver,
	}
}

// StartRequest is the input of one analysis run
type StartRequest struct {
	ID      string
	Resume  types.Resume
	Job     types.JobDescription
	Weights map[string]float64
	Preset  string
	Mode    Mode
}

// Orchestrator owns the subtask catalog and drives runs to completion
type Orchestrator struct {
	opts       Options
	collab     Collaborators
	store      store.Store[*State]
	publisher  Publisher
	recorder   Recorder
	logger     *errors.Logger
	runner     *Runner
	aggregator *Aggregator
	analyzers  []analyzerStep
	wg         sync.WaitGroup
}

type analyzerStep struct {
	def TaskDef
	fn  SubtaskFunc
}

// NewOrchestrator wires the engine. publisher and recorder may be nil.
func NewOrchestrator(opts Options, collab Collaborators, registry store.Store[*State], publisher Publisher, recorder Recorder, logger *errors.Logger) (*Orchestrator, error) {
	if registry == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "analysis store is required", nil)
	}
	if logger == nil {
		logger = errors.Discard()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	if opts.Weights == nil {
		opts.Weights, _ = NewWeightResolver(DefaultWeights(), nil)
	}
	if opts.Mode == "" {
		opts.Mode = ModeSequential
	}
	if opts.MaxParallel <= 0 {
		opts.MaxParallel = 1
	}
	if err := opts.Policy.Thresholds.Validate(); err != nil {
		return nil, err
	}

	o := &Orchestrator{
		opts:       opts,
		collab:     collab,
		store:      registry,
		publisher:  publisher,
		recorder:   recorder,
		logger:     logger,
		runner:     NewRunner(logger, recorder),
		aggregator: NewAggregator(opts.Policy, logger),
	}
	o.analyzers = []analyzerStep{
		{DefaultTasks[1], o.githubTask},
		{DefaultTasks[2], o.linkedinTask},
		{DefaultTasks[3], o.twitterTask},
		{DefaultTasks[4], o.mediumTask},
		{DefaultTasks[5], o.projectsTask},
		{DefaultTasks[6], o.companiesTask},
	}
	if err := o.checkCatalog(); err != nil {
		return nil, err
	}
	return o, nil
}

// checkCatalog makes sure every registered task has exactly one driver
func (o *Orchestrator) checkCatalog() error {
	driven := map[string]bool{TaskResumeMatch: true, TaskFinalScore: true}
	for _, a := range o.analyzers {
		if driven[a.def.ID] {
			return errors.NewInternalError(errors.ErrCodeInvalidConfig, "subtask registered twice: "+a.def.ID, nil)
		}
		driven[a.def.ID] = true
	}
	for _, def := range DefaultTasks {
		if !driven[def.ID] {
			return errors.NewInternalError(errors.ErrCodeInvalidConfig, "subtask has no driver: "+def.ID, nil)
		}
	}
	return nil
}

// Prepare validates a request and registers its initial state without running it
func (o *Orchestrator) Prepare(req StartRequest) (*State, error) {
	if strings.TrimSpace(req.Job.Title) == "" && strings.TrimSpace(req.Job.Description) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job description requires a title or description", nil)
	}
	weights, err := o.opts.Weights.Resolve(req.Preset, req.Weights)
	if err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = o.opts.Mode
	}
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	} else if _, exists := o.store.Get(id); exists {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest, "analysis id already in use", nil).
			WithContext("analysis_id", id)
	}

	st := NewState(StateParams{
		ID:            id,
		Resume:        req.Resume,
		Job:           req.Job,
		Weights:       weights,
		CustomWeights: req.Weights,
		Preset:        req.Preset,
		Mode:          mode,
	}, o.logger)
	o.store.Put(id, st)
	return st, nil
}

// Start registers a run and executes it in the background. Progress is
// observed through the publisher or GetProgress.
func (o *Orchestrator) Start(ctx context.Context, req StartRequest) (string, error) {
	st, err := o.Prepare(req)
	if err != nil {
		return "", err
	}

	runCtx := context.WithoutCancel(ctx)
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.Run(runCtx, st)
	}()
	return st.ID(), nil
}

// GetProgress returns a snapshot of a run
func (o *Orchestrator) GetProgress(id string) (Snapshot, bool) {
	st, ok := o.store.Get(id)
	if !ok {
		return Snapshot{}, false
	}
	return st.Snapshot(), true
}

// Cleanup forgets a run. Unknown ids are ignored.
func (o *Orchestrator) Cleanup(id string) {
	if o.store.Delete(id) {
		o.logger.Debug("Analysis removed", "analysis_id", id)
	}
}

// Stats summarises the registry
type Stats struct {
	Total     int `json:"total"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
}

func (o *Orchestrator) Stats() Stats {
	var s Stats
	o.store.Range(func(_ string, st *State) bool {
		s.Total++
		if st.Status() == RunCompleted {
			s.Completed++
		} else {
			s.Running++
		}
		return true
	})
	return s
}

// Presets exposes the effective weight table of every preset
func (o *Orchestrator) Presets() map[string]map[string]float64 {
	out := make(map[string]map[string]float64)
	for _, name := range o.opts.Weights.PresetNames() {
		if w, ok := o.opts.Weights.Preset(name); ok {
			out[name] = w
		}
	}
	return out
}

// Wait blocks until background runs finish or ctx is done
func (o *Orchestrator) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives st to completion and returns the final snapshot. It always
// sets a final result, whatever fails along the way.
func (o *Orchestrator) Run(ctx context.Context, st *State) Snapshot {
	start := time.Now()
	mode := st.mode
	log := o.logger.With("analysis_id", st.ID(), "mode", string(mode))

	runCtx, cancel := withOptionalTimeout(ctx, o.opts.RunTimeout)
	defer cancel()

	st.setRunning()
	o.recorder.RecordRunStarted(ctx, mode)
	log.Info("Analysis started")
	publish := o.publisherFor(st)

	o.runner.Run(runCtx, st, TaskResumeMatch, o.opts.SubtaskTimeout, o.matchTask)
	publish(ctx)

	if mode == ModeGraph {
		o.runGraph(runCtx, st, publish)
	} else {
		for _, step := range o.analyzers {
			o.runAnalyzer(runCtx, st, step)
			publish(ctx)
		}
	}

	o.finalize(ctx, runCtx, st)
	publish(ctx)
	// retention counts from completion; a run cleaned up mid-flight stays gone
	o.store.Touch(st.ID())

	snap := st.Snapshot()
	o.recorder.RecordRun(ctx, mode, snap.FinalResult, time.Since(start))
	log.Info("Analysis completed",
		"overall_score", snap.FinalResult.OverallScore,
		"recommendation", snap.FinalResult.Recommendation,
		"errors", len(snap.Errors),
		"duration_ms", time.Since(start).Milliseconds())
	return snap
}

func (o *Orchestrator) runAnalyzer(runCtx context.Context, st *State, step analyzerStep) {
	if runCtx.Err() != nil {
		markTimedOut(st, step.def.ID, step.def.Name)
		return
	}
	o.runner.Run(runCtx, st, step.def.ID, o.opts.SubtaskTimeout, step.fn)
}

// finalize runs aggregation within min(aggregation timeout, remaining run
// time) and falls back to a degraded result if that fails
func (o *Orchestrator) finalize(ctx, runCtx context.Context, st *State) {
	budget := o.opts.AggregationTimeout
	if deadline, ok := runCtx.Deadline(); ok {
		if remaining := time.Until(deadline); budget <= 0 || remaining < budget {
			budget = remaining
		}
	}

	completed := false
	if runCtx.Err() == nil && (budget > 0 || o.opts.AggregationTimeout <= 0) {
		completed = o.runner.Run(ctx, st, TaskFinalScore, budget, o.finalTask)
	} else {
		markTimedOut(st, TaskFinalScore, st.taskName(TaskFinalScore))
	}

	if !completed || st.Status() != RunCompleted {
		snap := st.Snapshot()
		st.SetFinal(DegradedResult(snap.Results, snap.Weights))
		o.logger.Warn("Aggregation did not complete, using degraded result", "analysis_id", st.ID())
	}
}

// publisherFor returns a publish func that keeps one run's snapshots in order
func (o *Orchestrator) publisherFor(st *State) func(ctx context.Context) {
	var mu sync.Mutex
	return func(ctx context.Context) {
		mu.Lock()
		defer mu.Unlock()
		o.safePublish(ctx, st.Snapshot())
	}
}

func (o *Orchestrator) safePublish(ctx context.Context, snap Snapshot) {
	defer func() {
		if rec := recover(); rec != nil {
			o.logger.LogError(fmt.Errorf("%v", rec), "Progress publisher panicked", "analysis_id", snap.AnalysisID)
		}
	}()
	if err := o.publisher.Publish(ctx, snap); err != nil {
		o.logger.Warn("Progress publish failed", "analysis_id", snap.AnalysisID, "error", err.Error())
	}
}
