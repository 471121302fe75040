package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. It doubles
// as the topic name.
type EventType string

const (
	EventRoundGenerated  EventType = "round-generated"
	EventResultRecorded  EventType = "result-recorded"
	EventMatchesArchived EventType = "matches-archived"
)

// RoundGenerated is published after a round of pairings is stored.
type RoundGenerated struct {
	Batch     string  `msgpack:"batch"`
	RoundID   string  `msgpack:"round_id"`
	MatchDate string  `msgpack:"match_date"`
	MatchIDs  []int64 `msgpack:"match_ids"`
}

// ResultRecorded is published after a match is scored. WinnerID is empty
// for a draw.
type ResultRecorded struct {
	Batch    string `msgpack:"batch"`
	MatchID  int64  `msgpack:"match_id"`
	WinnerID string `msgpack:"winner_id"`
	Draw     bool   `msgpack:"draw"`
}

// MatchesArchived is published after scored matches move to the history.
type MatchesArchived struct {
	Batch string `msgpack:"batch"`
	Count int64  `msgpack:"count"`
}
