package queueadmin

// Logger receives the diagnostics handlers emit while serving a request.
// Unknown queues, jobs and states are reported at Warn, failed backend reads at Error.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)

	// Fatal logs at Fatal level and does not return.
	Fatal(args ...any)
}
