package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRoundsGenerated()
	AddMatchesGenerated(n int)
	IncResultsRecorded(outcome string)
	AddMatchesArchived(n int64)
	ObserveOperationDuration(operation string, duration float64)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	IncEventsPublished(eventType string)
	IncEventsFailed(eventType string)
	SetStartupTime(duration float64)
}
