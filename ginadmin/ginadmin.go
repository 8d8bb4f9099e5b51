// Package ginadmin mounts the queueadmin handlers on a gin router.
package ginadmin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kaptinlin/queueadmin"
)

type requestContext struct {
	c *gin.Context
}

// NewRequestContext adapts a gin context to queueadmin.RequestContext.
// The gin context keys serve as the request state.
func NewRequestContext(c *gin.Context) queueadmin.RequestContext {
	return requestContext{c: c}
}

func (r requestContext) Context() context.Context       { return r.c.Request.Context() }
func (r requestContext) Param(name string) string       { return r.c.Param(name) }
func (r requestContext) Query(name string) string       { return r.c.Query(name) }
func (r requestContext) Value(key string) (any, bool)   { return r.c.Get(key) }
func (r requestContext) SetValue(key string, value any) { r.c.Set(key, value) }

// Wrap turns a queueadmin handler into gin middleware. Errors abort the chain
// with a JSON error body and the status from queueadmin.StatusCode.
func Wrap(h queueadmin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h(requestContext{c: c}, func() error {
			c.Next()
			return nil
		})
		if err != nil {
			abortWithError(c, err)
		}
	}
}

func abortWithError(c *gin.Context, err error) {
	if retryAfter, ok := queueadmin.RetryAfter(err); ok {
		c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(queueadmin.StatusCode(err), gin.H{"error": err.Error()})
}

// Render writes the request's envelope as the JSON response.
func Render(c *gin.Context) {
	c.JSON(http.StatusOK, queueadmin.EnvelopeFrom(requestContext{c: c}))
}

// Register mounts the four read endpoints on r:
//
//	GET /queues                             - details of every queue
//	GET /queues/:queueName                  - details of one queue
//	GET /queues/:queueName/jobs/:jobId      - details of one job
//	GET /queues/:queueName/states/:state    - one page of jobs in a state
func Register(r gin.IRouter, queues []queueadmin.Queue, opts ...queueadmin.Option) error {
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

	r.GET("/queues", Wrap(all), Render)
	r.GET("/queues/:queueName", Wrap(details), Render)
	r.GET("/queues/:queueName/jobs/:jobId", Wrap(job), Render)
	r.GET("/queues/:queueName/states/:state", Wrap(jobs), Render)
	return nil
}
