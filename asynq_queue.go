package queueadmin

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"

	"github.com/hibiken/asynq"
)

// AsynqQueue implements Queue on top of an asynq Inspector.
//
// Waiting jobs are asynq's pending tasks, delayed jobs its scheduled tasks, and
// failed jobs its retry tasks followed by its archived tasks.
type AsynqQueue struct {
	name      string
	inspector *asynq.Inspector
}

var _ Queue = (*AsynqQueue)(nil)

// NewAsynqQueue creates a handle to the named queue.
func NewAsynqQueue(inspector *asynq.Inspector, name string) *AsynqQueue {
	return &AsynqQueue{
		name:      name,
		inspector: inspector,
	}
}

// NewAsynqQueues creates handles to the named queues, in order.
func NewAsynqQueues(inspector *asynq.Inspector, names ...string) []Queue {
	queues := make([]Queue, len(names))
	for i, name := range names {
		queues[i] = NewAsynqQueue(inspector, name)
	}
	return queues
}

// DiscoverAsynqQueues creates handles to every queue known to the inspector.
func DiscoverAsynqQueues(inspector *asynq.Inspector) ([]Queue, error) {
	names, err := inspector.Queues()
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	slices.Sort(names)
	return NewAsynqQueues(inspector, names...), nil
}

// Name returns the queue name.
func (q *AsynqQueue) Name() string {
	return q.name
}

// info reads the queue summary. A queue that has never held a task reads as empty.
// Reads sharing a context prepared by withQueueInfoMemo hit redis once per queue.
func (q *AsynqQueue) info(ctx context.Context) (*asynq.QueueInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if memo, ok := ctx.Value(queueInfoMemoKey{}).(*queueInfoMemo); ok {
		return memo.get(q.name, q.readInfo)
	}
	return q.readInfo()
}

func (q *AsynqQueue) readInfo() (*asynq.QueueInfo, error) {
	qinfo, err := q.inspector.GetQueueInfo(q.name)
	if err != nil {
		if isQueueNotFoundError(err) {
			return &asynq.QueueInfo{Queue: q.name}, nil
		}
		return nil, err
	}
	return qinfo, nil
}

// IsPaused reports whether the queue is paused.
func (q *AsynqQueue) IsPaused(ctx context.Context) (bool, error) {
	qinfo, err := q.info(ctx)
	if err != nil {
		return false, err
	}
	return qinfo.Paused, nil
}

// ActiveCount returns the number of tasks being processed.
func (q *AsynqQueue) ActiveCount(ctx context.Context) (int, error) {
	return q.count(ctx, func(qi *asynq.QueueInfo) int { return qi.Active })
}

// CompletedCount returns the number of retained completed tasks.
func (q *AsynqQueue) CompletedCount(ctx context.Context) (int, error) {
	return q.count(ctx, func(qi *asynq.QueueInfo) int { return qi.Completed })
}

// DelayedCount returns the number of scheduled tasks.
func (q *AsynqQueue) DelayedCount(ctx context.Context) (int, error) {
	return q.count(ctx, func(qi *asynq.QueueInfo) int { return qi.Scheduled })
}

// FailedCount returns the number of retry and archived tasks.
func (q *AsynqQueue) FailedCount(ctx context.Context) (int, error) {
	return q.count(ctx, func(qi *asynq.QueueInfo) int { return qi.Retry + qi.Archived })
}

// WaitingCount returns the number of pending tasks.
func (q *AsynqQueue) WaitingCount(ctx context.Context) (int, error) {
	return q.count(ctx, func(qi *asynq.QueueInfo) int { return qi.Pending })
}

func (q *AsynqQueue) count(ctx context.Context, field func(*asynq.QueueInfo) int) (int, error) {
	qinfo, err := q.info(ctx)
	if err != nil {
		return 0, err
	}
	return field(qinfo), nil
}

type queueInfoMemoKey struct{}

// queueInfoMemo shares one queue summary read between the concurrent
// detail reads of a single fetch.
type queueInfoMemo struct {
	mu    sync.Mutex
	reads map[string]func() (*asynq.QueueInfo, error)
}

func withQueueInfoMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, queueInfoMemoKey{}, &queueInfoMemo{
		reads: make(map[string]func() (*asynq.QueueInfo, error)),
	})
}

func (m *queueInfoMemo) get(queue string, read func() (*asynq.QueueInfo, error)) (*asynq.QueueInfo, error) {
	m.mu.Lock()
	once, ok := m.reads[queue]
	if !ok {
		once = sync.OnceValues(read)
		m.reads[queue] = once
	}
	m.mu.Unlock()
	return once()
}

// Waiting lists pending tasks in the window [start, end].
func (q *AsynqQueue) Waiting(ctx context.Context, start, end int) ([]Job, error) {
	return q.list(ctx, start, end, q.pending)
}

// Active lists tasks being processed in the window [start, end], with the
// start time and deadline reported by the worker running them.
func (q *AsynqQueue) Active(ctx context.Context, start, end int) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, err := fetchWindow(start, end, q.active)
	if err != nil {
		return nil, q.listError(err)
	}
	if len(tasks) == 0 {
		return []Job{}, nil
	}

	servers, err := q.inspector.Servers()
	if err != nil {
		return nil, err
	}
	workerInfoMap := make(map[string]*asynq.WorkerInfo)
	for _, server := range servers {
		for _, worker := range server.ActiveWorkers {
			if worker.Queue == q.name {
				workerInfoMap[worker.TaskID] = worker
			}
		}
	}

	jobs := make([]Job, len(tasks))
	for i, task := range tasks {
		jobs[i] = q.newJob(toJobInfo(task, workerInfoMap[task.ID]))
	}
	return jobs, nil
}

// Delayed lists scheduled tasks in the window [start, end].
func (q *AsynqQueue) Delayed(ctx context.Context, start, end int) ([]Job, error) {
	return q.list(ctx, start, end, q.scheduled)
}

// Completed lists retained completed tasks in the window [start, end].
func (q *AsynqQueue) Completed(ctx context.Context, start, end int) ([]Job, error) {
	return q.list(ctx, start, end, q.completed)
}

// Failed lists retry tasks followed by archived tasks in the window [start, end].
func (q *AsynqQueue) Failed(ctx context.Context, start, end int) ([]Job, error) {
	qinfo, err := q.info(ctx)
	if err != nil {
		return nil, err
	}
	retry := qinfo.Retry

	var tasks []*asynq.TaskInfo
	if start < retry {
		page, err := fetchWindow(start, min(end, retry-1), q.retry)
		if err != nil {
			return nil, q.listError(err)
		}
		tasks = append(tasks, page...)
	}
	if end >= retry {
		page, err := fetchWindow(max(start-retry, 0), end-retry, q.archived)
		if err != nil {
			return nil, q.listError(err)
		}
		tasks = append(tasks, page...)
	}
	return q.toJobs(tasks), nil
}

// Job looks a task up by id. Missing tasks and missing queues yield (nil, nil).
func (q *AsynqQueue) Job(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	taskInfo, err := q.inspector.GetTaskInfo(q.name, id)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) || isQueueNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}
	return q.newJob(toJobInfo(taskInfo, nil)), nil
}

func (q *AsynqQueue) list(ctx context.Context, start, end int, fetch pageFetcher) ([]Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tasks, err := fetchWindow(start, end, fetch)
	if err != nil {
		return nil, q.listError(err)
	}
	return q.toJobs(tasks), nil
}

// listError drops queue-not-found errors so that an unknown queue lists as empty.
func (q *AsynqQueue) listError(err error) error {
	if isQueueNotFoundError(err) {
		return nil
	}
	return err
}

func (q *AsynqQueue) toJobs(tasks []*asynq.TaskInfo) []Job {
	jobs := make([]Job, len(tasks))
	for i, task := range tasks {
		jobs[i] = q.newJob(toJobInfo(task, nil))
	}
	return jobs
}

func (q *AsynqQueue) newJob(info *JobInfo) *AsynqJob {
	return &AsynqJob{
		queue:     q.name,
		inspector: q.inspector,
		info:      info,
	}
}

func (q *AsynqQueue) pending(size, page int) ([]*asynq.TaskInfo, error) {
	return q.inspector.ListPendingTasks(q.name, asynq.PageSize(size), asynq.Page(page))
}

func (q *AsynqQueue) active(size, page int) ([]*asynq.TaskInfo, error) {
	return q.inspector.ListActiveTasks(q.name, asynq.PageSize(size), asynq.Page(page))
}

func (q *AsynqQueue) scheduled(size, page int) ([]*asynq.TaskInfo, error) {
	return q.inspector.ListScheduledTasks(q.name, asynq.PageSize(size), asynq.Page(page))
}

func (q *AsynqQueue) completed(size, page int) ([]*asynq.TaskInfo, error) {
	return q.inspector.ListCompletedTasks(q.name, asynq.PageSize(size), asynq.Page(page))
}

func (q *AsynqQueue) retry(size, page int) ([]*asynq.TaskInfo, error) {
	return q.inspector.ListRetryTasks(q.name, asynq.PageSize(size), asynq.Page(page))
}

func (q *AsynqQueue) archived(size, page int) ([]*asynq.TaskInfo, error) {
	return q.inspector.ListArchivedTasks(q.name, asynq.PageSize(size), asynq.Page(page))
}

// pageFetcher lists one 1-based page of tasks of a single asynq state.
type pageFetcher func(size, page int) ([]*asynq.TaskInfo, error)

// fetchWindow reads the inclusive window [start, end] through asynq's 1-based
// pages. A window that does not start on a page boundary spans two pages.
func fetchWindow(start, end int, fetch pageFetcher) ([]*asynq.TaskInfo, error) {
	start = max(start, 0)
	if end < start {
		return nil, nil
	}
	size := end - start
	if size < math.MaxInt {
		size++
	}
	page := start/size + 1
	offset := start % size

	first, err := fetch(size, page)
	if err != nil {
		return nil, err
	}
	if offset == 0 {
		return first, nil
	}
	if len(first) <= offset {
		return nil, nil
	}
	if len(first) < size {
		return first[offset:], nil
	}

	second, err := fetch(size, page+1)
	if err != nil {
		return nil, err
	}
	return slices.Concat(first[offset:], second[:min(offset, len(second))]), nil
}

// isQueueNotFoundError uses string matching as a workaround because asynq
// does not expose a sentinel error for all queue-not-found scenarios.
func isQueueNotFoundError(err error) bool {
	return errors.Is(err, asynq.ErrQueueNotFound) || strings.Contains(err.Error(), "does not exist")
}

// AsynqJob implements Job for a task read through an asynq Inspector.
type AsynqJob struct {
	queue     string
	inspector *asynq.Inspector
	info      *JobInfo
}

var _ Job = (*AsynqJob)(nil)

// ID returns the task id.
func (j *AsynqJob) ID() string {
	return j.info.ID
}

// Info returns the snapshot taken when the task was read.
func (j *AsynqJob) Info() *JobInfo {
	return j.info
}

// State re-reads the task and returns its current state.
func (j *AsynqJob) State(ctx context.Context) (JobState, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	taskInfo, err := j.inspector.GetTaskInfo(j.queue, j.info.ID)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskNotFound) {
			return "", ErrJobNotFound
		}
		return "", err
	}
	state, ok := toJobState(taskInfo.State)
	if !ok {
		return "", fmt.Errorf("%w: %v", ErrUnknownTaskState, taskInfo.State)
	}
	return state, nil
}
