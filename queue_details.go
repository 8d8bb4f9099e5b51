package queueadmin

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

type queueDetailsHandler struct {
	queues   []Queue
	getQueue GetQueueFunc
	store    func(rc RequestContext, details *QueueDetails)
	logger   Logger
}

// NewQueueDetailsHandler builds a handler that stores the details of the queue
// resolved from the request.
func NewQueueDetailsHandler(queues []Queue, opts ...Option) (HandlerFunc, error) {
	config := newConfig(opts)
	if err := validateQueues(queues); err != nil {
		return nil, err
	}
	if err := validateHooks(
		hook{"getQueue", config.GetQueue != nil},
		hook{"storeResult", config.StoreQueueDetails != nil},
	); err != nil {
		return nil, err
	}

	h := &queueDetailsHandler{
		queues:   queues,
		getQueue: config.GetQueue,
		store:    config.StoreQueueDetails,
		logger:   loggerOrDefault(config.Logger),
	}
	return withLimiter(config, h.serve), nil
}

func (h *queueDetailsHandler) serve(rc RequestContext, next NextFunc) error {
	q, err := resolveQueue(rc, h.queues, h.getQueue, h.logger)
	if err != nil {
		return err
	}

	details, err := FetchQueueDetails(rc.Context(), q)
	if err != nil {
		h.logger.Error(fmt.Sprintf("failed to fetch queue details: %v, queue=%s", err, q.Name()))
		return err
	}
	h.store(rc, details)

	return next()
}

// FetchQueueDetails reads the pause flag and the five state counts of a queue concurrently.
// An AsynqQueue serves all six reads from a single queue summary.
func FetchQueueDetails(ctx context.Context, q Queue) (*QueueDetails, error) {
	details := &QueueDetails{Name: q.Name()}

	g, ctx := errgroup.WithContext(withQueueInfoMemo(ctx))
	g.Go(func() (err error) {
		details.IsPaused, err = q.IsPaused(ctx)
		return err
	})
	g.Go(countInto(ctx, q.ActiveCount, &details.ActiveCount))
	g.Go(countInto(ctx, q.CompletedCount, &details.CompletedCount))
	g.Go(countInto(ctx, q.DelayedCount, &details.DelayedCount))
	g.Go(countInto(ctx, q.FailedCount, &details.FailedCount))
	g.Go(countInto(ctx, q.WaitingCount, &details.WaitingCount))

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("queue %s: %w", q.Name(), err)
	}
	return details, nil
}

func countInto(ctx context.Context, count func(context.Context) (int, error), dst *int) func() error {
	return func() (err error) {
		*dst, err = count(ctx)
		return err
	}
}

// resolveQueue runs the queue lookup and turns a miss into ErrQueueNotFound.
func resolveQueue(rc RequestContext, queues []Queue, getQueue GetQueueFunc, logger Logger) (Queue, error) {
	q := getQueue(rc, queues)
	if q == nil {
		logger.Warn(fmt.Sprintf("queue not found: queue=%s", rc.Param("queueName")))
		return nil, ErrQueueNotFound
	}
	return q, nil
}

func withLimiter(config *Config, h HandlerFunc) HandlerFunc {
	if config.Limiter == nil {
		return h
	}
	return Chain(RateLimit(config.Limiter), h)
}

func loggerOrDefault(logger Logger) Logger {
	if logger == nil {
		return NewDefaultLogger()
	}
	return logger
}
