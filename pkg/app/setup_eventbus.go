// Package app wires the services together and registers the event
// handlers they communicate through.
package app

import (
	"github.com/nNEWBE/expense-tracker-sub000/pkg/domain/events"
)

// setupEventBus registers the notifier for every record mutation.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	for _, t := range []events.EventType{
		events.EventTypeRecordCreated,
		events.EventTypeRecordUpdated,
		events.EventTypeRecordDeleted,
	} {
		bus.Register(t.String(), a.Notifier.HandleRecordEvent)
	}
}
