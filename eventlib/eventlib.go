// Package eventlib provides the event-library registry: an append-only
// mapping from interned names to event ids, each bound to a handler and an
// ordered list of dispatcher functions.
package eventlib

import (
	"fmt"

	"github.com/sarchlab/signalgp/event"
	"github.com/sarchlab/signalgp/machine"
)

// Handler is the single callback invoked when an event is drained from the
// FIFO (typical handler: spawn a thread by tag taken from the payload).
type Handler func(m machine.Machine, e *event.Event)

// Dispatcher is a callback run by TriggerEvent, typically used to forward an
// event to peer VMs; on the VM that calls TriggerEvent, effects are
// immediate.
type Dispatcher func(m machine.Machine, e *event.Event)

// Entry is one event-library record.
type Entry struct {
	Name        string
	Handler     Handler
	Dispatchers []Dispatcher
	Description string
}

// Library is an append-only event registry. The zero value is ready to use.
type Library struct {
	entries []Entry
	byName  map[string]uint32
}

// NewLibrary constructs an empty Library.
func NewLibrary() *Library {
	return &Library{byName: map[string]uint32{}}
}

// Register adds entry and returns its event id. Panics on a duplicate name.
func (l *Library) Register(entry Entry) uint32 {
	if l.byName == nil {
		l.byName = map[string]uint32{}
	}
	if _, exists := l.byName[entry.Name]; exists {
		panic(fmt.Sprintf("eventlib: duplicate event name %q", entry.Name))
	}
	id := uint32(len(l.entries))
	l.entries = append(l.entries, entry)
	l.byName[entry.Name] = id
	return id
}

// Lookup returns the entry for eventID and whether it exists.
func (l *Library) Lookup(eventID uint32) (Entry, bool) {
	if int(eventID) >= len(l.entries) {
		return Entry{}, false
	}
	return l.entries[eventID], true
}

// LookupByName returns the event id registered under name.
func (l *Library) LookupByName(name string) (uint32, bool) {
	id, ok := l.byName[name]
	return id, ok
}

// Len returns the number of registered entries.
func (l *Library) Len() int {
	return len(l.entries)
}
