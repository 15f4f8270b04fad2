package core

import "sync"

// System internal event codes. Application should use codes beyond 255.
type SystemEventCode int

const (
	// Ends the event loop and tears the application down.
	EventCodeApplicationQuit SystemEventCode = 0x01

	// The platform finished dispatching one batch of window events.
	EventCodeEventsProcessed SystemEventCode = 0x02

	// The window system asked for the contents to be redrawn.
	EventCodeRedrawRequested SystemEventCode = 0x03

	// Resized/resolution changed from the OS.
	/* Context usage:
	 * width = Data.U32[0]
	 * height = Data.U32[1]
	 */
	EventCodeResized SystemEventCode = 0x04

	MaxEventCode SystemEventCode = 0xFF
)

func (c SystemEventCode) String() string {
	switch c {
	case EventCodeApplicationQuit:
		return "application_quit"
	case EventCodeEventsProcessed:
		return "events_processed"
	case EventCodeRedrawRequested:
		return "redraw_requested"
	case EventCodeResized:
		return "resized"
	default:
		return "user"
	}
}

type EventContext struct {
	Type   SystemEventCode
	Sender interface{}
	Data   struct {
		U32 [4]uint32
	}
}

// Should return true if handled. A handled event is not passed on to any
// more listeners.
type FnOnEvent func(ctx EventContext) bool

type registeredEvent struct {
	listener interface{}
	callback FnOnEvent
}

// EventSystem dispatches events synchronously on the caller's goroutine.
type EventSystem struct {
	mu         sync.RWMutex
	registered map[SystemEventCode][]registeredEvent
}

func NewEventSystem() *EventSystem {
	return &EventSystem{
		registered: make(map[SystemEventCode][]registeredEvent),
	}
}

// Register a listener for the given code. A listener may only be registered
// once per code; a duplicate returns false.
func (es *EventSystem) Register(code SystemEventCode, listener interface{}, onEvent FnOnEvent) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	for _, e := range es.registered[code] {
		if e.listener == listener {
			LogWarn("listener already registered for event `%s`", code)
			return false
		}
	}
	es.registered[code] = append(es.registered[code], registeredEvent{
		listener: listener,
		callback: onEvent,
	})
	return true
}

// Unregister removes the listener for the given code. Returns false if no
// matching registration was found.
func (es *EventSystem) Unregister(code SystemEventCode, listener interface{}) bool {
	es.mu.Lock()
	defer es.mu.Unlock()

	events := es.registered[code]
	for i, e := range events {
		if e.listener == listener {
			es.registered[code] = append(events[:i], events[i+1:]...)
			return true
		}
	}
	return false
}

// Fire delivers the event to the listeners of its code in registration order.
// Returns true if one of them handled it.
func (es *EventSystem) Fire(ctx EventContext) bool {
	es.mu.RLock()
	events := make([]registeredEvent, len(es.registered[ctx.Type]))
	copy(events, es.registered[ctx.Type])
	es.mu.RUnlock()

	for _, e := range events {
		if e.callback(ctx) {
			return true
		}
	}
	return false
}

// Shutdown drops every registration.
func (es *EventSystem) Shutdown() {
	es.mu.Lock()
	defer es.mu.Unlock()
	es.registered = make(map[SystemEventCode][]registeredEvent)
}
