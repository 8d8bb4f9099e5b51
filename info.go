package queueadmin

import (
	"math"
	"time"

	"github.com/hibiken/asynq"
)

// DefaultNamespace is the request state key the default store functions write the [Envelope] under.
const DefaultNamespace = "queueAdmin"

// QueueDetails summarizes a queue's pause flag and per-state job counts.
type QueueDetails struct {
	Name           string `json:"name"`
	IsPaused       bool   `json:"isPaused"`
	ActiveCount    int    `json:"activeCount"`
	CompletedCount int    `json:"completedCount"`
	DelayedCount   int    `json:"delayedCount"`
	FailedCount    int    `json:"failedCount"`
	WaitingCount   int    `json:"waitingCount"`
}

// JobInfo is the serializable snapshot of a job.
type JobInfo struct {
	ID            string        `json:"id"`
	Name          string        `json:"name"`
	Queue         string        `json:"queue"`
	State         JobState      `json:"state,omitzero"`
	Payload       string        `json:"payload"`
	MaxRetry      int           `json:"maxRetry"`
	Retried       int           `json:"retried"`
	LastError     string        `json:"lastError,omitzero"`
	Timeout       time.Duration `json:"timeout,omitzero,format:nano"`
	Retention     time.Duration `json:"retention,omitzero,format:nano"`
	NextProcessAt *time.Time    `json:"nextProcessAt,omitzero"`
	LastFailedAt  *time.Time    `json:"lastFailedAt,omitzero"`
	CompletedAt   *time.Time    `json:"completedAt,omitzero"`
	// Additional fields for active jobs.
	StartedAt  *time.Time `json:"startedAt,omitzero"`
	DeadlineAt *time.Time `json:"deadlineAt,omitzero"`
	IsOrphaned bool       `json:"isOrphaned,omitzero"`
	// Set for jobs that were aggregated into a group.
	Group *string `json:"group,omitzero"`
	// Result written by the handler of a completed job.
	Result *string `json:"result,omitzero"`
}

// withState returns a copy of the snapshot labelled with the given state.
func (j *JobInfo) withState(state JobState) *JobInfo {
	c := *j
	c.State = state
	return &c
}

// Pagination is an inclusive window over a state-scoped job listing.
// Count is filled in after the listing with the total number of jobs in the state.
type Pagination struct {
	Start    int `json:"start" validate:"gte=0"`
	PageSize int `json:"pageSize" validate:"gte=1"`
	Count    int `json:"count"`
}

// End returns the inclusive index of the last job in the window.
// Windows reaching past math.MaxInt end at math.MaxInt.
func (p *Pagination) End() int {
	if p.PageSize > math.MaxInt-p.Start {
		return math.MaxInt
	}
	return p.Start + p.PageSize - 1
}

// Envelope collects the results stored by the default store functions.
type Envelope struct {
	QueueDetails    *QueueDetails   `json:"queueDetails,omitzero"`
	AllQueueDetails []*QueueDetails `json:"allQueueDetails,omitzero"`
	JobDetails      *JobInfo        `json:"jobDetails,omitzero"`
	JobsDetails     []*JobInfo      `json:"jobsDetails,omitzero"`
	Pagination      *Pagination     `json:"pagination,omitzero"`
}

// EnvelopeFrom returns the envelope stored on the request, creating it when absent.
func EnvelopeFrom(rc RequestContext) *Envelope {
	if v, ok := rc.Value(DefaultNamespace); ok {
		if env, ok := v.(*Envelope); ok {
			return env
		}
	}
	env := &Envelope{}
	rc.SetValue(DefaultNamespace, env)
	return env
}

// toJobInfo converts asynq.TaskInfo and optional asynq.WorkerInfo (for active tasks) to a JobInfo.
// WorkerInfo is nil for non-active tasks.
func toJobInfo(ti *asynq.TaskInfo, wi *asynq.WorkerInfo) *JobInfo {
	if ti == nil {
		return nil
	}
	state, _ := toJobState(ti.State)
	jobInfo := &JobInfo{
		ID:         ti.ID,
		Name:       ti.Type,
		Queue:      ti.Queue,
		State:      state,
		Payload:    string(ti.Payload),
		MaxRetry:   ti.MaxRetry,
		Retried:    ti.Retried,
		LastError:  ti.LastErr,
		Timeout:    ti.Timeout,
		Retention:  ti.Retention,
		IsOrphaned: ti.IsOrphaned,
	}

	if !ti.NextProcessAt.IsZero() {
		jobInfo.NextProcessAt = &ti.NextProcessAt
	}

	if !ti.LastFailedAt.IsZero() {
		jobInfo.LastFailedAt = &ti.LastFailedAt
	}

	if !ti.CompletedAt.IsZero() {
		jobInfo.CompletedAt = &ti.CompletedAt
	}

	if ti.Group != "" {
		jobInfo.Group = &ti.Group
	}

	if wi != nil {
		if !wi.Started.IsZero() {
			jobInfo.StartedAt = &wi.Started
		}
		if !wi.Deadline.IsZero() {
			jobInfo.DeadlineAt = &wi.Deadline
		}
	}

	if ti.Result != nil {
		result := string(ti.Result)
		jobInfo.Result = &result
	}

	return jobInfo
}
