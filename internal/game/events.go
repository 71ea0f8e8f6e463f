package game

// EventType names one entry of the per-exchange event sequence. The
// order on the wire is always: start, any number of chunks, then at
// most one each of progress, clues and solved, closed by exactly one of
// complete or error.
type EventType string

const (
	EventStart    EventType = "start"
	EventChunk    EventType = "chunk"
	EventProgress EventType = "progress"
	EventClues    EventType = "clues"
	EventSolved   EventType = "solved"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is one transport-agnostic exchange event. Data is the
// type-specific payload, already shaped for JSON encoding.
type Event struct {
	Type EventType
	Data interface{}
}

// EventSink receives exchange events in order. A sink error aborts the
// exchange; the engine then cancels the in-flight generation call.
type EventSink func(Event) error

// StartPayload acknowledges an accepted exchange.
type StartPayload struct {
	Status string `json:"status"`
}

// ChunkPayload is one marker-free display fragment.
type ChunkPayload struct {
	Text string `json:"text"`
}

// ProgressPayload carries the folded session progress after final
// extraction.
type ProgressPayload struct {
	Progress int `json:"progress"`
}

// CluesPayload carries only the clues new to the session.
type CluesPayload struct {
	Clues []string `json:"clues"`
}

// SolvedPayload is emitted only on a transition to completed by
// reasoning; it finally discloses the hidden solution.
type SolvedPayload struct {
	Solution string `json:"solution"`
}

// ErrorPayload carries the fixed player-safe message for a failed
// exchange. It never contains upstream diagnostic detail.
type ErrorPayload struct {
	Error string `json:"error"`
}
