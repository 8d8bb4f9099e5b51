package queueadmin

import (
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimitRetryAfter is the duration suggested to clients that were rate limited.
const DefaultRateLimitRetryAfter = 10 * time.Second

// NextFunc invokes the next handler in the chain.
type NextFunc func() error

// HandlerFunc defines the signature of a request handler. A handler does its work,
// stores its result and returns whatever next returns.
type HandlerFunc func(rc RequestContext, next NextFunc) error

// Chain composes handlers into one. The first handler is the outermost wrapper.
func Chain(handlers ...HandlerFunc) HandlerFunc {
	return func(rc RequestContext, next NextFunc) error {
		var call func(i int) error
		call = func(i int) error {
			if i == len(handlers) {
				return next()
			}
			return handlers[i](rc, func() error { return call(i + 1) })
		}
		return call(0)
	}
}

// RateLimit returns a handler that rejects requests once the limiter runs out of tokens.
// A nil limiter lets every request through.
func RateLimit(limiter *rate.Limiter) HandlerFunc {
	return func(_ RequestContext, next NextFunc) error {
		if limiter != nil && !limiter.Allow() {
			return NewErrRateLimit(DefaultRateLimitRetryAfter)
		}
		return next()
	}
}
