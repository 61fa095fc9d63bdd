package domain

const MaxNameLen = 36

// Participant is one connected actor inside a room. ID is the opaque
// transport-assigned connection identifier. Estimate is nil until the
// participant submits a card. Names are free-form; duplicates allowed.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Estimate *Card  `json:"estimate"`
}

// ValidName reports whether a display name fits the length limit.
// Empty and duplicate names are allowed.
func ValidName(name string) bool {
	return len(name) <= MaxNameLen
}
