package queueadmin

import "fmt"

type allQueueDetailsHandler struct {
	queues []Queue
	store  func(rc RequestContext, details []*QueueDetails)
	logger Logger
}

// NewAllQueueDetailsHandler builds a handler that stores the details of every
// configured queue, in configuration order.
func NewAllQueueDetailsHandler(queues []Queue, opts ...Option) (HandlerFunc, error) {
	config := newConfig(opts)
	if err := validateQueues(queues); err != nil {
		return nil, err
	}
	if err := validateHooks(hook{"storeResult", config.StoreAllQueueDetails != nil}); err != nil {
		return nil, err
	}

	h := &allQueueDetailsHandler{
		queues: queues,
		store:  config.StoreAllQueueDetails,
		logger: loggerOrDefault(config.Logger),
	}
	return withLimiter(config, h.serve), nil
}

// serve fetches one queue at a time. A single failure fails the whole request.
func (h *allQueueDetailsHandler) serve(rc RequestContext, next NextFunc) error {
	results := make([]*QueueDetails, 0, len(h.queues))
	for _, q := range h.queues {
		details, err := FetchQueueDetails(rc.Context(), q)
		if err != nil {
			h.logger.Error(fmt.Sprintf("failed to fetch queue details: %v, queue=%s", err, q.Name()))
			return err
		}
		results = append(results, details)
	}
	h.store(rc, results)

	return next()
}
