// Package fiberadmin mounts the queueadmin handlers on a fiber router.
package fiberadmin

import (
	"context"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/kaptinlin/queueadmin"
)

type requestContext struct {
	c *fiber.Ctx
}

// NewRequestContext adapts a fiber context to queueadmin.RequestContext.
// Fiber locals serve as the request state.
func NewRequestContext(c *fiber.Ctx) queueadmin.RequestContext {
	return requestContext{c: c}
}

func (r requestContext) Context() context.Context { return r.c.UserContext() }
func (r requestContext) Param(name string) string { return r.c.Params(name) }
func (r requestContext) Query(name string) string { return r.c.Query(name) }

func (r requestContext) Value(key string) (any, bool) {
	v := r.c.Locals(key)
	return v, v != nil
}

func (r requestContext) SetValue(key string, value any) {
	r.c.Locals(key, value)
}

// Wrap turns a queueadmin handler into a fiber handler. Errors raised by the
// handler become a JSON error body with the status from queueadmin.StatusCode;
// fiber errors returned further down the chain pass through untouched.
func Wrap(h queueadmin.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := h(requestContext{c: c}, c.Next)
		if err == nil {
			return nil
		}
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return err
		}
		if retryAfter, ok := queueadmin.RetryAfter(err); ok {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(retryAfter.Seconds())))
		}
		return c.Status(queueadmin.StatusCode(err)).JSON(fiber.Map{"error": err.Error()})
	}
}

// Render writes the request's envelope as the JSON response.
func Render(c *fiber.Ctx) error {
	return c.JSON(queueadmin.EnvelopeFrom(requestContext{c: c}))
}

// Register mounts the four read endpoints on r, with the same paths as ginadmin.Register.
func Register(r fiber.Router, queues []queueadmin.Queue, opts ...queueadmin.Option) error {
	all, err := queueadmin.NewAllQueueDetailsHandler(queues, opts...)
	if err != nil {
		return err
	}
	details, err := queueadmin.NewQueueDetailsHandler(queues, opts...)
	if err != nil {
		return err
	}
	job, err := queueadmin.NewJobDetailsHandler(queues, opts...)
	if err != nil {
		return err
	}
	jobs, err := queueadmin.NewJobsForStateHandler(queues, opts...)
	if err != nil {
		return err
	}

	r.Get("/queues", Wrap(all), Render)
	r.Get("/queues/:queueName", Wrap(details), Render)
	r.Get("/queues/:queueName/jobs/:jobId", Wrap(job), Render)
	r.Get("/queues/:queueName/states/:state", Wrap(jobs), Render)
	return nil
}
