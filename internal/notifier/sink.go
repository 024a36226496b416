package notifier

import "github.com/1023-Ventures/qlaunch/internal/models"

// Sink receives outbound notifications. Broadcast must not block and must not
// call back into the Notifier.
type Sink interface {
	Broadcast(msg models.Message)
}

// Sinks fans a notification out to every sink in order.
type Sinks []Sink

func (s Sinks) Broadcast(msg models.Message) {
	for _, sink := range s {
		if sink != nil {
			sink.Broadcast(msg)
		}
	}
}

// SnapshotRequester starts a snapshot aggregation without waiting for it.
type SnapshotRequester interface {
	RequestSnapshot()
}
