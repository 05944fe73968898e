package observability

// MetricKey names an instrument independently of the metrics backend.
type MetricKey string

const (
	MUsecaseRequests         MetricKey = "usecase_requests_total"
	MUsecaseDuration         MetricKey = "usecase_duration_seconds"
	MExternalRequests        MetricKey = "external_requests_total"
	MExternalRequestDuration MetricKey = "external_request_duration_seconds"
)

type InstrumentKind int

const (
	KindCounter InstrumentKind = iota
	KindHistogram
)

// Instrument describes one metric a settlement run records.
type Instrument struct {
	Key    MetricKey
	Kind   InstrumentKind
	Help   string
	Labels []string
}

// Instruments is the full RED set: use case outcomes and latency, plus the
// same pair for every call to the gateway.
var Instruments = []Instrument{
	{MUsecaseRequests, KindCounter, "Total number of use case invocations.", []string{"use_case", "outcome"}},
	{MUsecaseDuration, KindHistogram, "Duration of use case execution in seconds.", []string{"use_case"}},
	{MExternalRequests, KindCounter, "Total number of calls to external systems.", []string{"peer", "endpoint", "outcome"}},
	{MExternalRequestDuration, KindHistogram, "Duration of calls to external systems in seconds.", []string{"peer", "endpoint"}},
}
