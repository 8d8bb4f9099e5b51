package queueadmin

import "fmt"

type jobsForStateHandler struct {
	queues        []Queue
	getQueue      GetQueueFunc
	getState      GetStateFunc
	getPagination GetPaginationFunc
	store         func(rc RequestContext, jobs []*JobInfo, pagination *Pagination)
	logger        Logger
}

// NewJobsForStateHandler builds a handler that stores one page of the jobs in the
// requested state together with the pagination window and the state's total count.
func NewJobsForStateHandler(queues []Queue, opts ...Option) (HandlerFunc, error) {
	config := newConfig(opts)
	if err := validateQueues(queues); err != nil {
		return nil, err
	}
	if err := validateHooks(
		hook{"getQueue", config.GetQueue != nil},
		hook{"getState", config.GetState != nil},
		hook{"getPagination", config.GetPagination != nil},
		hook{"storeResult", config.StoreJobsDetails != nil},
	); err != nil {
		return nil, err
	}

	h := &jobsForStateHandler{
		queues:        queues,
		getQueue:      config.GetQueue,
		getState:      config.GetState,
		getPagination: config.GetPagination,
		store:         config.StoreJobsDetails,
		logger:        loggerOrDefault(config.Logger),
	}
	return withLimiter(config, h.serve), nil
}

func (h *jobsForStateHandler) serve(rc RequestContext, next NextFunc) error {
	q, err := resolveQueue(rc, h.queues, h.getQueue, h.logger)
	if err != nil {
		return err
	}

	raw := h.getState(rc)
	state, err := ParseJobState(raw)
	if err != nil {
		h.logger.Warn(fmt.Sprintf("invalid job state: state=%q, queue=%s", raw, q.Name()))
		return err
	}
	ops := stateTable(q)[state]

	pagination := h.getPagination(rc)
	if err := validatePagination(pagination); err != nil {
		return err
	}

	ctx := rc.Context()
	jobs, err := ops.list(ctx, pagination.Start, pagination.End())
	if err != nil {
		h.logger.Error(fmt.Sprintf("failed to list jobs: %v, queue=%s, state=%s", err, q.Name(), state))
		return fmt.Errorf("list %s jobs: %w", state, err)
	}
	infos := make([]*JobInfo, 0, len(jobs))
	for _, job := range jobs {
		infos = append(infos, job.Info().withState(state))
	}

	count, err := ops.count(ctx)
	if err != nil {
		h.logger.Error(fmt.Sprintf("failed to count jobs: %v, queue=%s, state=%s", err, q.Name(), state))
		return fmt.Errorf("count %s jobs: %w", state, err)
	}
	pagination.Count = count

	h.store(rc, infos, pagination)

	return next()
}
