package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu               sync.Mutex
	roundsGenerated  int
	matchesGenerated int
	resultsRecorded  map[string]int
	matchesArchived  int64
	durations        map[string][]float64
	slackNotifSent   int
	slackNotifFailed int
	eventsPublished  map[string]int
	eventsFailed     map[string]int
	startupTime      float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		resultsRecorded: make(map[string]int),
		durations:       make(map[string][]float64),
		eventsPublished: make(map[string]int),
		eventsFailed:    make(map[string]int),
	}
}

func (m *Mock) IncRoundsGenerated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roundsGenerated++
}

func (m *Mock) AddMatchesGenerated(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesGenerated += n
}

func (m *Mock) IncResultsRecorded(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resultsRecorded[outcome]++
}

func (m *Mock) AddMatchesArchived(n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.matchesArchived += n
}

func (m *Mock) ObserveOperationDuration(operation string, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[operation] = append(m.durations[operation], duration)
}

func (m *Mock) IncSlackNotifSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifSent++
}

func (m *Mock) IncSlackNotifFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slackNotifFailed++
}

func (m *Mock) IncEventsPublished(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsPublished[eventType]++
}

func (m *Mock) IncEventsFailed(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsFailed[eventType]++
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// RoundsGenerated returns the number of times IncRoundsGenerated was called.
func (m *Mock) RoundsGenerated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roundsGenerated
}

// MatchesGenerated returns the sum passed to AddMatchesGenerated.
func (m *Mock) MatchesGenerated() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesGenerated
}

// ResultsRecorded returns how often a result with the given outcome was counted.
func (m *Mock) ResultsRecorded(outcome string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resultsRecorded[outcome]
}

// MatchesArchived returns the sum passed to AddMatchesArchived.
func (m *Mock) MatchesArchived() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matchesArchived
}

// Durations returns the observed durations of an operation.
func (m *Mock) Durations(operation string) []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.durations[operation]...)
}

// SlackNotifSent returns the number of times IncSlackNotifSent was called.
func (m *Mock) SlackNotifSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifSent
}

// SlackNotifFailed returns the number of times IncSlackNotifFailed was called.
func (m *Mock) SlackNotifFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slackNotifFailed
}

// EventsPublished returns how often an event of the given type was published.
func (m *Mock) EventsPublished(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsPublished[eventType]
}

// EventsFailed returns how often publishing an event of the given type failed.
func (m *Mock) EventsFailed(eventType string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.eventsFailed[eventType]
}
