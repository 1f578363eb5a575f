package metrics

const (
	ExecutionTimeMetric    = "execution_time"
	ExecutionSuccessMetric = "execution_success"
	ExecutionErrorMetric   = "execution_error"
	ExecutionFailureMetric = "execution_failure"

	// Partial batches are counted separately from outright failures.
	ExecutionPartialMetric = "execution_partial"

	RepoTag      = "repo"
	StepTag      = "step"
	ErrorKindTag = "error_kind"
	EventTag     = "event"
	StatusTag    = "status"

	// Progress channel
	ProgressSent    = "sent"
	ProgressDropped = "dropped"
	ProgressNoPeer  = "no_peer"

	WebsocketConnections = "connections"
	WebsocketRejected    = "rejected"
)
