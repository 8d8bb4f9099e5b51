package queueadmin

import (
	"strconv"

	"golang.org/x/time/rate"
)

const (
	// DefaultPageSize is used when the page-size query parameter is missing or not a number.
	DefaultPageSize = 10
	// DefaultStart is used when the start query parameter is missing or not a number.
	DefaultStart = 0
)

// GetQueueFunc resolves the target queue of a request. It returns nil when no queue matches.
type GetQueueFunc func(rc RequestContext, queues []Queue) Queue

// GetJobFunc resolves the target job of a request within a queue. It returns nil when no job matches.
type GetJobFunc func(rc RequestContext, q Queue) (Job, error)

// GetStateFunc resolves the requested lifecycle state label.
type GetStateFunc func(rc RequestContext) string

// GetPaginationFunc resolves the requested pagination window. The returned value
// must be non-nil with Start >= 0 and PageSize >= 1; a PageSize of 0 is rejected
// as an invalid page size rather than read as an empty page.
type GetPaginationFunc func(rc RequestContext) *Pagination

// Config holds the hooks shared by the handler constructors. Each constructor
// only uses, and only validates, the hooks that apply to it.
type Config struct {
	GetQueue      GetQueueFunc
	GetJob        GetJobFunc
	GetState      GetStateFunc
	GetPagination GetPaginationFunc

	StoreQueueDetails    func(rc RequestContext, details *QueueDetails)
	StoreAllQueueDetails func(rc RequestContext, details []*QueueDetails)
	StoreJobDetails      func(rc RequestContext, details *JobInfo)
	StoreJobsDetails     func(rc RequestContext, jobs []*JobInfo, pagination *Pagination)

	Limiter *rate.Limiter
	Logger  Logger
}

// Option defines a function signature for configuring a handler.
type Option func(*Config)

// DefaultConfig returns a Config initialized with the default hooks.
func DefaultConfig() *Config {
	return &Config{
		GetQueue:      DefaultGetQueue,
		GetJob:        DefaultGetJob,
		GetState:      DefaultGetState,
		GetPagination: DefaultGetPagination,

		StoreQueueDetails: func(rc RequestContext, details *QueueDetails) {
			EnvelopeFrom(rc).QueueDetails = details
		},
		StoreAllQueueDetails: func(rc RequestContext, details []*QueueDetails) {
			EnvelopeFrom(rc).AllQueueDetails = details
		},
		StoreJobDetails: func(rc RequestContext, details *JobInfo) {
			EnvelopeFrom(rc).JobDetails = details
		},
		StoreJobsDetails: func(rc RequestContext, jobs []*JobInfo, pagination *Pagination) {
			env := EnvelopeFrom(rc)
			env.JobsDetails = jobs
			env.Pagination = pagination
		},

		Logger: NewDefaultLogger(),
	}
}

func newConfig(opts []Option) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// DefaultGetQueue matches the queueName route parameter against the queue names.
func DefaultGetQueue(rc RequestContext, queues []Queue) Queue {
	name := rc.Param("queueName")
	for _, q := range queues {
		if q.Name() == name {
			return q
		}
	}
	return nil
}

// DefaultGetJob looks the jobId route parameter up in the queue.
func DefaultGetJob(rc RequestContext, q Queue) (Job, error) {
	return q.Job(rc.Context(), rc.Param("jobId"))
}

// DefaultGetState reads the state route parameter.
func DefaultGetState(rc RequestContext) string {
	return rc.Param("state")
}

// DefaultGetPagination reads the page-size and start query parameters.
// Missing, non-numeric and zero values fall back to the defaults.
func DefaultGetPagination(rc RequestContext) *Pagination {
	return &Pagination{
		PageSize: queryInt(rc, "page-size", DefaultPageSize),
		Start:    queryInt(rc, "start", DefaultStart),
	}
}

func queryInt(rc RequestContext, name string, fallback int) int {
	n, err := strconv.Atoi(rc.Query(name))
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

// WithGetQueue sets the hook resolving the target queue.
func WithGetQueue(fn GetQueueFunc) Option {
	return func(c *Config) {
		c.GetQueue = fn
	}
}

// WithGetJob sets the hook resolving the target job.
func WithGetJob(fn GetJobFunc) Option {
	return func(c *Config) {
		c.GetJob = fn
	}
}

// WithGetState sets the hook resolving the requested state label.
func WithGetState(fn GetStateFunc) Option {
	return func(c *Config) {
		c.GetState = fn
	}
}

// WithGetPagination sets the hook resolving the pagination window.
func WithGetPagination(fn GetPaginationFunc) Option {
	return func(c *Config) {
		c.GetPagination = fn
	}
}

// WithQueueDetailsStore sets where the queue details handler stores its result.
func WithQueueDetailsStore(fn func(rc RequestContext, details *QueueDetails)) Option {
	return func(c *Config) {
		c.StoreQueueDetails = fn
	}
}

// WithAllQueueDetailsStore sets where the all-queue details handler stores its result.
func WithAllQueueDetailsStore(fn func(rc RequestContext, details []*QueueDetails)) Option {
	return func(c *Config) {
		c.StoreAllQueueDetails = fn
	}
}

// WithJobDetailsStore sets where the job details handler stores its result.
func WithJobDetailsStore(fn func(rc RequestContext, details *JobInfo)) Option {
	return func(c *Config) {
		c.StoreJobDetails = fn
	}
}

// WithJobsDetailsStore sets where the state listing handler stores its result.
func WithJobsDetailsStore(fn func(rc RequestContext, jobs []*JobInfo, pagination *Pagination)) Option {
	return func(c *Config) {
		c.StoreJobsDetails = fn
	}
}

// WithRateLimiter puts a rate limiter in front of the handler.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Config) {
		c.Limiter = limiter
	}
}

// WithLogger sets a custom logger for the handler.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
