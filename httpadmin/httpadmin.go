// Package httpadmin exposes the queueadmin handlers as net/http middleware,
// reading route parameters from a chi router.
package httpadmin

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-json-experiment/json"

	"github.com/kaptinlin/queueadmin"
)

type stateKey struct{}

type requestContext struct {
	r     *http.Request
	state map[string]any
}

// withState returns the request carrying a state map, reusing one set by an
// earlier middleware in the chain.
func withState(r *http.Request) (*requestContext, *http.Request) {
	state, ok := r.Context().Value(stateKey{}).(map[string]any)
	if !ok {
		state = make(map[string]any)
		r = r.WithContext(context.WithValue(r.Context(), stateKey{}, state))
	}
	return &requestContext{r: r, state: state}, r
}

func (rc *requestContext) Context() context.Context { return rc.r.Context() }
func (rc *requestContext) Param(name string) string { return chi.URLParam(rc.r, name) }
func (rc *requestContext) Query(name string) string { return rc.r.URL.Query().Get(name) }

func (rc *requestContext) Value(key string) (any, bool) {
	v, ok := rc.state[key]
	return v, ok
}

func (rc *requestContext) SetValue(key string, value any) {
	rc.state[key] = value
}

// Middleware turns a queueadmin handler into net/http middleware.
func Middleware(h queueadmin.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rc, r := withState(r)
			err := h(rc, func() error {
				next.ServeHTTP(w, r)
				return nil
			})
			if err != nil {
				writeError(w, err)
			}
		})
	}
}

// Render writes the request's envelope as the JSON response.
func Render(w http.ResponseWriter, r *http.Request) {
	rc, _ := withState(r)
	writeJSON(w, http.StatusOK, queueadmin.EnvelopeFrom(rc))
}

func writeError(w http.ResponseWriter, err error) {
	if retryAfter, ok := queueadmin.RetryAfter(err); ok {
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
	}
	writeJSON(w, queueadmin.StatusCode(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.MarshalWrite(w, v)
}

// NewRouter builds a chi router serving the four read endpoints:
//
//	GET /queues
//	GET /queues/{queueName}
//	GET /queues/{queueName}/jobs/{jobId}
//	GET /queues/{queueName}/states/{state}
func NewRouter(queues []queueadmin.Queue, opts ...queueadmin.Option) (chi.Router, error) {
	all, err := queueadmin.NewAllQueueDetailsHandler(queues, opts...)
	if err != nil {
		return nil, err
	}
	details, err := queueadmin.NewQueueDetailsHandler(queues, opts...)
	if err != nil {
		return nil, err
	}
	job, err := queueadmin.NewJobDetailsHandler(queues, opts...)
	if err != nil {
		return nil, err
	}
	jobs, err := queueadmin.NewJobsForStateHandler(queues, opts...)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.With(Middleware(all)).Get("/queues", Render)
	r.With(Middleware(details)).Get("/queues/{queueName}", Render)
	r.With(Middleware(job)).Get("/queues/{queueName}/jobs/{jobId}", Render)
	r.With(Middleware(jobs)).Get("/queues/{queueName}/states/{state}", Render)
	return r, nil
}
