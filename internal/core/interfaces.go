package core

// Frame is a raw encoded payload sent to a client.
type Frame []byte

// SessionID is the opaque identifier of one live connection.
type SessionID string

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// BroadcastResult reports delivery stats/backpressure to the orchestrator.
type BroadcastResult struct {
	SentTo  int
	Dropped []SessionID
}

func (r *BroadcastResult) merge(other BroadcastResult) {
	r.SentTo += other.SentTo
	r.Dropped = append(r.Dropped, other.Dropped...)
}
