package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState() *State {
	return NewState(StateParams{ID: "run-1", Weights: DefaultWeights()}, nil)
}

func TestNewStateRegistersTasksInOrder(t *testing.T) {
	snap := newTestState().Snapshot()

	require.Len(t, snap.Progress, len(DefaultTasks))
	for i, def := range DefaultTasks {
		rec := snap.Progress[i]
		assert.Equal(t, def.ID, rec.TaskID)
		assert.Equal(t, def.Name, rec.TaskName)
		assert.Equal(t, StatusPending, rec.Status)
		assert.Zero(t, rec.ProgressPercentage)
		assert.Nil(t, rec.StartedAt)
	}
	assert.Equal(t, RunCreated, snap.Status)
	assert.Empty(t, snap.Errors)
	assert.Nil(t, snap.FinalResult)
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusFailed, true},
		{StatusInProgress, StatusPending, false},
		{StatusCompleted, StatusFailed, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusFailed, StatusCompleted, false},
		{StatusFailed, StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTransitionLifecycle(t *testing.T) {
	st := newTestState()

	require.True(t, st.Transition(TaskGitHub, StatusInProgress, "running", nil))
	rec, _ := st.Snapshot().Task(TaskGitHub)
	require.NotNil(t, rec.StartedAt)
	assert.Nil(t, rec.CompletedAt)
	assert.Zero(t, rec.ProgressPercentage)

	score := 72.5
	require.True(t, st.Transition(TaskGitHub, StatusCompleted, "done", &score))
	rec, _ = st.Snapshot().Task(TaskGitHub)
	assert.Equal(t, StatusCompleted, rec.Status)
	assert.Equal(t, 100.0, rec.ProgressPercentage)
	require.NotNil(t, rec.CompletedAt)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 72.5, *rec.Score)
	require.NotNil(t, rec.Message)
	assert.Equal(t, "done", *rec.Message)
}

func TestTransitionIgnoresIllegalAndUnknown(t *testing.T) {
	st := newTestState()

	assert.False(t, st.Transition("no_such_task", StatusInProgress, "", nil))
	assert.False(t, st.Transition(TaskLinkedIn, StatusCompleted, "skipped ahead", nil))

	rec, _ := st.Snapshot().Task(TaskLinkedIn)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Nil(t, rec.Message)

	require.True(t, st.Transition(TaskLinkedIn, StatusInProgress, "", nil))
	require.True(t, st.Transition(TaskLinkedIn, StatusFailed, "boom", nil))
	assert.False(t, st.Transition(TaskLinkedIn, StatusCompleted, "", nil), "terminal task must not move")

	rec, _ = st.Snapshot().Task(TaskLinkedIn)
	assert.Equal(t, StatusFailed, rec.Status)
	assert.Nil(t, rec.CompletedAt)
}

func TestTransitionClampsScore(t *testing.T) {
	st := newTestState()
	score := 140.0
	st.Transition(TaskMedium, StatusInProgress, "", nil)
	st.Transition(TaskMedium, StatusCompleted, "", &score)

	rec, _ := st.Snapshot().Task(TaskMedium)
	require.NotNil(t, rec.Score)
	assert.Equal(t, 100.0, *rec.Score)
}

func TestTaskErrorText(t *testing.T) {
	failed := TaskError{TaskName: "GitHub Analysis", Kind: KindFailed, Message: "rate limited"}
	assert.Equal(t, "GitHub Analysis failed: rate limited", failed.Error())

	timedOut := TaskError{TaskName: "Medium Analysis", Kind: KindTimedOut}
	assert.Equal(t, "Medium Analysis analysis timed out", timedOut.Error())
}

func TestSnapshotIsIsolated(t *testing.T) {
	st := newTestState()
	st.Update(func(r *Results) {
		r.Projects = nil
	})
	snap := st.Snapshot()
	snap.Progress[0].Status = StatusCompleted
	snap.Weights[WeightGitHub] = 0.99

	again := st.Snapshot()
	assert.Equal(t, StatusPending, again.Progress[0].Status)
	assert.Equal(t, 0.20, again.Weights[WeightGitHub])
}

func TestSetFinalOnlyOnce(t *testing.T) {
	st := newTestState()
	first := DegradedResult(Results{}, DefaultWeights())
	second := DegradedResult(Results{}, DefaultWeights())
	second.OverallScore = 99

	assert.False(t, st.SetFinal(first), "final score task still pending")
	assert.Equal(t, RunCreated, st.Status())

	require.True(t, st.Transition(TaskFinalScore, StatusInProgress, "", nil))
	assert.False(t, st.SetFinal(first), "final score task still running")
	assert.Nil(t, st.Snapshot().FinalResult)

	require.True(t, st.Transition(TaskFinalScore, StatusCompleted, "", nil))
	assert.True(t, st.SetFinal(first))
	assert.False(t, st.SetFinal(second))
	assert.Equal(t, 0.0, st.Snapshot().FinalResult.OverallScore)
	assert.Equal(t, RunCompleted, st.Status())
}

func TestProfileUsername(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://github.com/octocat", "octocat"},
		{"https://github.com/octocat/", "octocat"},
		{"github.com/octocat", "octocat"},
		{"https://twitter.com/jack?lang=en", "jack"},
		{"@jack", "jack"},
		{"https://medium.com/@jane.doe", "jane.doe"},
		{"https://medium.com/@jane/latest", "jane"},
		{"https://jane.medium.com/", "jane"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ProfileUsername(tt.in))
		})
	}
}
