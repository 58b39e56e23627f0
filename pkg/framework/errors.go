package framework

import (
	"io"
	"strings"
)

// AggregatedError aggregates multiple errors.
type AggregatedError struct {
	Errors []error
}

// Error implements error
func (e *AggregatedError) Error() string {
	switch len(e.Errors) {
	case 0:
		return ""
	case 1:
		return e.Errors[0].Error()
	}
	msg := make([]string, 0, len(e.Errors)+1)
	msg = append(msg, "Multiple errors:")
	for _, err := range e.Errors {
		msg = append(msg, "  "+err.Error())
	}
	return strings.Join(msg, "\n")
}

// Add adds errors to be aggregated. nil will be skipped.
func (e *AggregatedError) Add(errs ...error) *AggregatedError {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if agg, ok := err.(*AggregatedError); ok {
			e.Errors = append(e.Errors, agg.Errors...)
			continue
		}
		e.Errors = append(e.Errors, err)
	}
	return e
}

// Aggregate returns aggregated error if any error happened.
func (e *AggregatedError) Aggregate() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// CloseAll closes all closers and aggregates the errors.
// nil closers are skipped.
func CloseAll(closers ...io.Closer) error {
	var errs AggregatedError
	for _, c := range closers {
		if c != nil {
			errs.Add(c.Close())
		}
	}
	return errs.Aggregate()
}
