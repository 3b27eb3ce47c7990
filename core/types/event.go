package types

// Event represents a typed event emitted during credit-line state transitions.
// Attributes hold the flattened payload so downstream indexers can consume
// events without knowing the engine's internal types.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
