package settlement

import (
	"errors"
	"fmt"

	domain "github.com/Smilefounder/services-core/internal/domain/settlement"
)

var (
	ErrInvalidInput      = errors.New("settlement: invalid input")
	ErrNotFound          = errors.New("settlement: payment not found")
	ErrGateway           = errors.New("settlement: gateway failure")
	ErrStore             = errors.New("settlement: store failure")
	ErrInvalidTransition = domain.ErrInvalidTransition
	ErrLock              = errors.New("settlement: lock failure")
)

// stageError tags a failure with the status code reported for the run.
type stageError struct {
	code string
	err  error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func failStage(code string, err error) error {
	return &stageError{code: code, err: err}
}

func stageCode(err error, fallback string) string {
	var se *stageError
	if errors.As(err, &se) {
		return se.code
	}
	return fallback
}

func wrapStoreError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidTransition):
		return err
	case errors.Is(err, domain.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	default:
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
}

func newValidation(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}
