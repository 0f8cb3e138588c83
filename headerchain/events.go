// Copyright (c) 2015-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package headerchain

// EventKind identifies the kind of change the Working Chain is reporting to
// its subscribers.
type EventKind int

const (
	// EventConnect reports that an entry was added to the main chain at
	// its Height.
	EventConnect EventKind = iota

	// EventDisconnect reports that an entry was removed from the main
	// chain at its Height, as part of a reorg.
	EventDisconnect

	// EventReset reports that the chain was rebuilt from the Header Store
	// during startup reconciliation and subscribers should discard any
	// state they derived from prior events and resync from the chain's
	// current tip.
	EventReset
)

// Event is delivered to every Observer in the order the Working Chain
// decides: all of a reorg's EventDisconnect events oldest-tip-first, then
// its EventConnect events oldest-first.
type Event struct {
	Kind  EventKind
	Entry *Entry
}

// Observer receives chain events. The Working Chain calls Notify
// synchronously and in order; an Observer that needs to do slow work should
// hand off to its own goroutine rather than block the chain.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(Event)

// Notify implements Observer.
func (f ObserverFunc) Notify(e Event) { f(e) }
