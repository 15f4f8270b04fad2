package engine

import (
	"github.com/spaghettifunk/hellotriangle/engine/core"
)

// Application is what the engine runs: the startup configuration and the
// hooks invoked from the event loop. Nil hooks are skipped.
type Application struct {
	Config core.Config

	// Called after every batch of window events.
	FnOnEventsProcessed OnEventsProcessed
	// Called when the window system asks for the contents to be redrawn.
	FnOnRedraw OnRedraw
	FnOnResize OnResize
}

type OnEventsProcessed func() error
type OnRedraw func() error
type OnResize func(width uint32, height uint32) error

func NewApplication(config core.Config) *Application {
	return &Application{Config: config}
}
