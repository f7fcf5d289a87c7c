package analysis

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"candidatelens/internal/errors"
	"candidatelens/internal/types"
)

// Outcome is what a subtask hands back to the runner. Nothing in it touches
// the state until the runner applies it, so work finishing after its
// deadline is dropped on the floor.
type Outcome struct {
	// Apply writes the subtask's own result slot
	Apply   func(r *Results)
	Final   *types.FinalResult
	Score   *float64
	Message string
	Notes   []string
}

// SubtaskFunc is one analyzer step. It may read st but must not write it.
type SubtaskFunc func(ctx context.Context, st *State) (Outcome, error)

// Runner executes a subtask so that its TaskRecord always ends terminal and
// no failure escapes to the caller
type Runner struct {
	logger   *errors.Logger
	recorder Recorder
}

func NewRunner(logger *errors.Logger, recorder Recorder) *Runner {
	if logger == nil {
		logger = errors.Discard()
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Runner{logger: logger, recorder: recorder}
}

type subtaskResult struct {
	out Outcome
	err error
}

// Run executes fn for taskID with its own timeout. It reports whether the
// task completed.
func (r *Runner) Run(ctx context.Context, st *State, taskID string, timeout time.Duration, fn SubtaskFunc) bool {
	name := st.taskName(taskID)
	if !st.Transition(taskID, StatusInProgress, fmt.Sprintf("Running %s", name), nil) {
		return false
	}
	log := r.logger.With("analysis_id", st.ID(), "task_id", taskID)
	log.Debug("Subtask started")

	start := time.Now()
	tctx, cancel := withOptionalTimeout(ctx, timeout)
	defer cancel()

	done := make(chan subtaskResult, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- subtaskResult{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		out, err := fn(tctx, st)
		done <- subtaskResult{out: out, err: err}
	}()

	var res subtaskResult
	select {
	case res = <-done:
	case <-tctx.Done():
		r.timedOut(tctx, st, taskID, name, start, log)
		return false
	}

	if res.err != nil {
		if stderrors.Is(res.err, context.DeadlineExceeded) && tctx.Err() != nil {
			r.timedOut(tctx, st, taskID, name, start, log)
			return false
		}
		r.failed(tctx, st, taskID, name, res.err, start, log)
		return false
	}

	if err := r.apply(st, taskID, res.out); err != nil {
		r.failed(tctx, st, taskID, name, err, start, log)
		return false
	}

	msg := res.out.Message
	if msg == "" {
		msg = fmt.Sprintf("%s completed", name)
	}
	st.Transition(taskID, StatusCompleted, msg, res.out.Score)
	// the run only reads as completed once its last task does
	st.SetFinal(res.out.Final)
	r.recorder.RecordSubtask(ctx, taskID, StatusCompleted, time.Since(start))
	log.Debug("Subtask completed", "duration_ms", time.Since(start).Milliseconds())
	return true
}

func (r *Runner) apply(st *State, taskID string, out Outcome) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("applying result: %v", rec)
		}
	}()
	if out.Apply != nil {
		st.Update(out.Apply)
	}
	for _, n := range out.Notes {
		st.AddNote(taskID, n)
	}
	return nil
}

func (r *Runner) failed(ctx context.Context, st *State, taskID, name string, cause error, start time.Time, log *errors.Logger) {
	te := TaskError{TaskID: taskID, TaskName: name, Kind: KindFailed, Message: cause.Error()}
	st.Transition(taskID, StatusFailed, te.Error(), nil)
	st.AppendError(te)
	r.recorder.RecordSubtask(context.WithoutCancel(ctx), taskID, StatusFailed, time.Since(start))
	log.LogError(errors.NewInternalError(errors.ErrCodeSubtaskFailed, te.Error(), cause), "Subtask failed")
}

func (r *Runner) timedOut(ctx context.Context, st *State, taskID, name string, start time.Time, log *errors.Logger) {
	markTimedOut(st, taskID, name)
	r.recorder.RecordSubtask(context.WithoutCancel(ctx), taskID, StatusFailed, time.Since(start))
	te := TaskError{TaskID: taskID, TaskName: name, Kind: KindTimedOut}
	log.LogError(errors.NewTimeoutError(errors.ErrCodeSubtaskTimeout, te.Error(), ctx.Err()),
		"Subtask timed out", "duration_ms", time.Since(start).Milliseconds())
}

// markTimedOut fails a pending or running task as timed out
func markTimedOut(st *State, taskID, name string) bool {
	te := TaskError{TaskID: taskID, TaskName: name, Kind: KindTimedOut}
	if !st.Transition(taskID, StatusFailed, te.Error(), nil) {
		return false
	}
	st.AppendError(te)
	return true
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
