package workerpresentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var ErrMalformedInput = errors.New("worker: stdin is not a JSON object")

// maxInputBytes bounds stdin; the document only carries an id.
const maxInputBytes = 1 << 20

// Invocation is the document a caller pipes to the worker.
type Invocation struct {
	ID string `json:"id"`
	// TraceParent is an optional W3C traceparent of the caller.
	TraceParent string `json:"traceparent,omitempty"`
}

// ParseInvocation reads the invocation from r. Empty or whitespace-only input
// yields (nil, nil): there is nothing to do.
func ParseInvocation(r io.Reader) (*Invocation, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxInputBytes))
	if err != nil {
		return nil, fmt.Errorf("worker: read stdin: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	var inv Invocation
	if err := json.Unmarshal(raw, &inv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	return &inv, nil
}
