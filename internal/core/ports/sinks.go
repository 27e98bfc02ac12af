package ports

import "droidcast/internal/core/domain"

// EventSink receives session events for delivery to the hosting UI. Publish
// must not block; slow consumers drop events rather than stall the session.
type EventSink interface {
	Publish(event domain.Event)
}

// EventSinks fans an event out to every registered sink.
type EventSinks []EventSink

func (s EventSinks) Publish(event domain.Event) {
	for _, sink := range s {
		sink.Publish(event)
	}
}
