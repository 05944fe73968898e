// Package application holds the entry points of the settlement worker.
package application

import "context"

// UseCase is one application entry point. An implementation owns its span,
// its RED metrics and the single summary log line of a run.
type UseCase[Cmd any, Res any] interface {
	Execute(ctx context.Context, cmd Cmd) (Res, error)
}
