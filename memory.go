package queueadmin

import (
	"context"
	"errors"
	"sync"
)

var (
	ErrJobAlreadyExists = errors.New("job already exists")
)

// MemoryQueue is an in-process Queue holding job snapshots per state.
// It backs tests and demos that run without a redis server.
type MemoryQueue struct {
	name   string
	mu     sync.Mutex
	paused bool
	jobs   map[JobState][]*JobInfo // Insertion order within each state.
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue initializes a new, empty MemoryQueue.
func NewMemoryQueue(name string) *MemoryQueue {
	return &MemoryQueue{
		name: name,
		jobs: make(map[JobState][]*JobInfo),
	}
}

// Add appends a job snapshot to the given state.
func (m *MemoryQueue) Add(state JobState, info *JobInfo) error {
	if !IsValidJobState(state) {
		return ErrInvalidState
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, _, exists := m.find(info.ID); exists {
		return ErrJobAlreadyExists
	}
	c := *info
	c.Queue = m.name
	m.jobs[state] = append(m.jobs[state], &c)
	return nil
}

// Move transfers a job to the end of another state.
func (m *MemoryQueue) Move(id string, state JobState) error {
	if !IsValidJobState(state) {
		return ErrInvalidState
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	from, i, exists := m.find(id)
	if !exists {
		return ErrJobNotFound
	}
	info := m.jobs[from][i]
	m.jobs[from] = append(m.jobs[from][:i:i], m.jobs[from][i+1:]...)
	m.jobs[state] = append(m.jobs[state], info)
	return nil
}

// Pause marks the queue as paused.
func (m *MemoryQueue) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = true
}

// Resume clears the paused mark.
func (m *MemoryQueue) Resume() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = false
}

// find must be called with mu held.
func (m *MemoryQueue) find(id string) (JobState, int, bool) {
	for state, infos := range m.jobs {
		for i, info := range infos {
			if info.ID == id {
				return state, i, true
			}
		}
	}
	return "", 0, false
}

// Name returns the queue name.
func (m *MemoryQueue) Name() string {
	return m.name
}

// IsPaused reports whether the queue is paused.
func (m *MemoryQueue) IsPaused(_ context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused, nil
}

func (m *MemoryQueue) count(state JobState) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs[state]), nil
}

func (m *MemoryQueue) ActiveCount(_ context.Context) (int, error)    { return m.count(StateActive) }
func (m *MemoryQueue) CompletedCount(_ context.Context) (int, error) { return m.count(StateCompleted) }
func (m *MemoryQueue) DelayedCount(_ context.Context) (int, error)   { return m.count(StateDelayed) }
func (m *MemoryQueue) FailedCount(_ context.Context) (int, error)    { return m.count(StateFailed) }
func (m *MemoryQueue) WaitingCount(_ context.Context) (int, error)   { return m.count(StateWaiting) }

// list returns the jobs of a state in the inclusive window [start, end].
func (m *MemoryQueue) list(state JobState, start, end int) ([]Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := m.jobs[state]
	start = max(start, 0)
	end = min(end, len(infos)-1)
	if start > end {
		return []Job{}, nil
	}
	jobs := make([]Job, 0, end-start+1)
	for _, info := range infos[start : end+1] {
		jobs = append(jobs, m.newJob(info))
	}
	return jobs, nil
}

func (m *MemoryQueue) Waiting(_ context.Context, start, end int) ([]Job, error) {
	return m.list(StateWaiting, start, end)
}

func (m *MemoryQueue) Active(_ context.Context, start, end int) ([]Job, error) {
	return m.list(StateActive, start, end)
}

func (m *MemoryQueue) Delayed(_ context.Context, start, end int) ([]Job, error) {
	return m.list(StateDelayed, start, end)
}

func (m *MemoryQueue) Completed(_ context.Context, start, end int) ([]Job, error) {
	return m.list(StateCompleted, start, end)
}

func (m *MemoryQueue) Failed(_ context.Context, start, end int) ([]Job, error) {
	return m.list(StateFailed, start, end)
}

// Job looks a job up by id.
func (m *MemoryQueue) Job(_ context.Context, id string) (Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, i, exists := m.find(id)
	if !exists {
		return nil, nil
	}
	return m.newJob(m.jobs[state][i]), nil
}

// newJob must be called with mu held.
func (m *MemoryQueue) newJob(info *JobInfo) *memoryJob {
	c := *info
	c.State = ""
	return &memoryJob{queue: m, info: &c}
}

type memoryJob struct {
	queue *MemoryQueue
	info  *JobInfo
}

func (j *memoryJob) ID() string { return j.info.ID }

func (j *memoryJob) Info() *JobInfo { return j.info }

func (j *memoryJob) State(_ context.Context) (JobState, error) {
	j.queue.mu.Lock()
	defer j.queue.mu.Unlock()

	state, _, exists := j.queue.find(j.info.ID)
	if !exists {
		return "", ErrJobNotFound
	}
	return state, nil
}
