package queueadmin

import "fmt"

type jobDetailsHandler struct {
	queues   []Queue
	getQueue GetQueueFunc
	getJob   GetJobFunc
	store    func(rc RequestContext, details *JobInfo)
	logger   Logger
}

// NewJobDetailsHandler builds a handler that stores the snapshot and current
// state of the job resolved from the request.
func NewJobDetailsHandler(queues []Queue, opts ...Option) (HandlerFunc, error) {
	config := newConfig(opts)
	if err := validateQueues(queues); err != nil {
		return nil, err
	}
	if err := validateHooks(
		hook{"getQueue", config.GetQueue != nil},
		hook{"getJob", config.GetJob != nil},
		hook{"storeResult", config.StoreJobDetails != nil},
	); err != nil {
		return nil, err
	}

	h := &jobDetailsHandler{
		queues:   queues,
		getQueue: config.GetQueue,
		getJob:   config.GetJob,
		store:    config.StoreJobDetails,
		logger:   loggerOrDefault(config.Logger),
	}
	return withLimiter(config, h.serve), nil
}

func (h *jobDetailsHandler) serve(rc RequestContext, next NextFunc) error {
	q, err := resolveQueue(rc, h.queues, h.getQueue, h.logger)
	if err != nil {
		return err
	}

	job, err := h.getJob(rc, q)
	if err != nil {
		h.logger.Error(fmt.Sprintf("failed to get job: %v, queue=%s", err, q.Name()))
		return fmt.Errorf("get job: %w", err)
	}
	if job == nil {
		h.logger.Warn(fmt.Sprintf("job not found: queue=%s, job_id=%s", q.Name(), rc.Param("jobId")))
		return ErrJobNotFound
	}

	state, err := job.State(rc.Context())
	if err != nil {
		h.logger.Error(fmt.Sprintf("failed to get job state: %v, queue=%s, job_id=%s", err, q.Name(), job.ID()))
		return fmt.Errorf("get job state: %w", err)
	}
	h.store(rc, job.Info().withState(state))

	return next()
}
