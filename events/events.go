// Package events provides a small demonstration event catalog, registered
// against an eventlib.Library: a payload-carried tag that spawns a thread
// when the event is drained from the FIFO, and a dispatcher that forwards
// the same event to a peer machine when triggered immediately.
package events

import (
	"github.com/sarchlab/signalgp/event"
	"github.com/sarchlab/signalgp/eventlib"
	"github.com/sarchlab/signalgp/machine"
	"github.com/sarchlab/signalgp/tag"
)

// Events holds the event ids Register assigns.
type Events struct {
	// SpawnFromTag spawns one thread for the best module match of the
	// payload's Target at the payload's Priority, when drained from the
	// FIFO. A payload that is not a SpawnPayload is ignored.
	SpawnFromTag uint32
}

// SpawnPayload is the payload type SpawnFromTag expects.
type SpawnPayload struct {
	Target   tag.Tag
	Priority float64
}

// Register installs the event catalog into lib and returns the assigned
// event ids. forward, if non-nil, is attached as SpawnFromTag's only
// dispatcher and is invoked by every TriggerEvent call — typically a
// closure that queues the same event on one or more peer machines.
func Register(lib *eventlib.Library, forward func(e *event.Event)) Events {
	var dispatchers []eventlib.Dispatcher
	if forward != nil {
		dispatchers = []eventlib.Dispatcher{
			func(m machine.Machine, e *event.Event) { forward(e) },
		}
	}

	var ev Events
	ev.SpawnFromTag = lib.Register(eventlib.Entry{
		Name: "spawn_from_tag",
		Handler: func(m machine.Machine, e *event.Event) {
			p, ok := e.Payload.(SpawnPayload)
			if !ok {
				return
			}
			m.SpawnByTag(p.Target, 1, p.Priority)
		},
		Dispatchers: dispatchers,
		Description: "Spawns a thread for the module best matching the payload's target tag.",
	})
	return ev
}
