package zaplogger

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/Smilefounder/services-core/internal/observability"
)

const redacted = "[redacted]"

// sensitiveKeys never reach the log sink with their value.
var sensitiveKeys = map[string]struct{}{
	"api_key":   {},
	"card_hash": {},
	"card_id":   {},
}

type logger struct{ l *zap.Logger }

// New adapts a zap logger to the observability.Logger port, prebinding any fixed fields.
func New(base *zap.Logger, fixed ...observability.Field) observability.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	return &logger{l: base.With(toZapFields(fixed)...)}
}

func (z *logger) With(fields ...observability.Field) observability.Logger {
	if len(fields) == 0 {
		return &logger{l: z.l}
	}
	return &logger{l: z.l.With(toZapFields(fields)...)}
}

func (z *logger) Debug(msg string, fields ...observability.Field) {
	z.l.Debug(msg, toZapFields(fields)...)
}
func (z *logger) Info(msg string, fields ...observability.Field) {
	z.l.Info(msg, toZapFields(fields)...)
}
func (z *logger) Warn(msg string, fields ...observability.Field) {
	z.l.Warn(msg, toZapFields(fields)...)
}
func (z *logger) Error(msg string, fields ...observability.Field) {
	z.l.Error(msg, toZapFields(fields)...)
}

func toZapFields(fs []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fs))
	for _, f := range fs {
		if _, ok := sensitiveKeys[f.Key]; ok {
			out = append(out, zap.String(f.Key, redacted))
			continue
		}
		switch v := f.Value.(type) {
		case error:
			// plain message, not zap's error object encoding
			out = append(out, zap.String(f.Key, v.Error()))
		case json.RawMessage:
			// gateway payloads stay readable instead of base64 bytes
			out = append(out, zap.String(f.Key, string(v)))
		default:
			out = append(out, zap.Any(f.Key, v))
		}
	}
	return out
}
