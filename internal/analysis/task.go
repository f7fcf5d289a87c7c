package analysis

import (
	"fmt"
	"time"
)

// TaskStatus is the lifecycle state of one subtask
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transition is allowed from s
func (s TaskStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// allowedTransitions lists every legal status change. Pending to Failed covers
// subtasks abandoned before they start because the run ceiling passed.
var allowedTransitions = map[TaskStatus][]TaskStatus{
	StatusPending:    {StatusInProgress, StatusFailed},
	StatusInProgress: {StatusCompleted, StatusFailed},
}

// CanTransition reports whether from -> to is legal
func CanTransition(from, to TaskStatus) bool {
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Subtask identifiers in registration order
const (
	TaskResumeMatch = "resume_jd_match"
	TaskGitHub      = "github_analyze"
	TaskLinkedIn    = "linkedin_analyze"
	TaskTwitter     = "twitter_analyze"
	TaskMedium      = "medium_analyze"
	TaskProjects    = "project_evaluate"
	TaskCompanies   = "company_research"
	TaskFinalScore  = "final_score"
)

// TaskDef is a registered subtask: stable id plus display name
type TaskDef struct {
	ID   string
	Name string
}

// DefaultTasks is the subtask catalog, in execution order
var DefaultTasks = []TaskDef{
	{TaskResumeMatch, "Resume and JD Matching"},
	{TaskGitHub, "GitHub Analysis"},
	{TaskLinkedIn, "LinkedIn Analysis"},
	{TaskTwitter, "Twitter Analysis"},
	{TaskMedium, "Medium Analysis"},
	{TaskProjects, "Project Evaluation"},
	{TaskCompanies, "Company Research"},
	{TaskFinalScore, "Final Scoring"},
}

// TaskRecord tracks one subtask of a run
type TaskRecord struct {
	TaskID             string     `json:"task_id"`
	TaskName           string     `json:"task_name"`
	Status             TaskStatus `json:"status"`
	ProgressPercentage float64    `json:"progress_percentage"`
	Message            *string    `json:"message,omitempty"`
	Score              *float64   `json:"score,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

func newTaskRecord(def TaskDef) TaskRecord {
	return TaskRecord{TaskID: def.ID, TaskName: def.Name, Status: StatusPending}
}

// apply performs a checked transition on r. It returns an error describing an
// illegal transition and leaves r untouched in that case.
func (r *TaskRecord) apply(to TaskStatus, message string, score *float64, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("illegal transition %s -> %s for %s", r.Status, to, r.TaskID)
	}

	r.Status = to
	if message != "" {
		msg := message
		r.Message = &msg
	}
	if score != nil {
		s := clamp(*score, 0, 100)
		r.Score = &s
	}

	switch to {
	case StatusInProgress:
		t := now
		r.StartedAt = &t
	case StatusCompleted:
		t := now
		r.CompletedAt = &t
		r.ProgressPercentage = 100
	}
	return nil
}

func (r TaskRecord) clone() TaskRecord {
	c := r
	if r.Message != nil {
		m := *r.Message
		c.Message = &m
	}
	if r.Score != nil {
		s := *r.Score
		c.Score = &s
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		c.StartedAt = &t
	}
	if r.CompletedAt != nil {
		t := *r.CompletedAt
		c.CompletedAt = &t
	}
	return c
}

// ErrorKind distinguishes failures from timeouts
type ErrorKind string

const (
	KindFailed   ErrorKind = "failed"
	KindTimedOut ErrorKind = "timed_out"
)

// TaskError is one entry of a run's error log
type TaskError struct {
	TaskID   string    `json:"task_id"`
	TaskName string    `json:"task_name"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message,omitempty"`
	At       time.Time `json:"at"`
}

func (e TaskError) Error() string {
	if e.Kind == KindTimedOut {
		return fmt.Sprintf("%s analysis timed out", e.TaskName)
	}
	return fmt.Sprintf("%s failed: %s", e.TaskName, e.Message)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
