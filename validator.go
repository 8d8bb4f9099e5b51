package queueadmin

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateQueues checks the queue list handed to a constructor.
func validateQueues(queues []Queue) error {
	if queues == nil {
		return ErrQueuesRequired
	}
	for _, q := range queues {
		if q == nil {
			return ErrInvalidQueueItem
		}
	}
	return nil
}

// hook names a configured function for validation.
type hook struct {
	name  string
	isSet bool
}

// validateHooks checks that every hook a constructor relies on is set.
func validateHooks(hooks ...hook) error {
	for _, h := range hooks {
		if !h.isSet {
			return newFunctionParameterError(h.name)
		}
	}
	return nil
}

// validatePagination checks the window returned by a GetPaginationFunc.
func validatePagination(p *Pagination) error {
	if p == nil {
		return ErrPaginationRequired
	}
	err := validate.Struct(p)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	switch fieldErrs[0].Field() {
	case "Start":
		return newPaginationKeyError("start", "non-negative")
	default:
		return newPaginationKeyError("pageSize", "positive")
	}
}
