package postfx

import (
	"context"
	"fmt"
)

// EventKind identifies a window event.
type EventKind uint8

const (
	// EventRedraw requests one frame.
	EventRedraw EventKind = iota + 1

	// EventResize reports a new window size in Width and Height.
	EventResize

	// EventClose requests shutdown.
	EventClose
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventRedraw:
		return "redraw"
	case EventResize:
		return "resize"
	case EventClose:
		return "close"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// Event is a trigger delivered by the windowing system.
type Event struct {
	Kind   EventKind
	Width  uint32
	Height uint32
}

// Redraw returns a redraw event.
func Redraw() Event { return Event{Kind: EventRedraw} }

// Resize returns a resize event.
func Resize(width, height uint32) Event {
	return Event{Kind: EventResize, Width: width, Height: height}
}

// Close returns a close event.
func Close() Event { return Event{Kind: EventClose} }

// Handle dispatches ev to OnRedraw, OnResize or OnClose.
func (o *Orchestrator) Handle(ev Event) error {
	switch ev.Kind {
	case EventRedraw:
		return o.OnRedraw()
	case EventResize:
		return o.OnResize(ev.Width, ev.Height)
	case EventClose:
		return o.OnClose()
	default:
		if o.state == StateClosed {
			return ErrClosed
		}
		return fmt.Errorf("%w: %d", ErrUnknownEvent, ev.Kind)
	}
}

// Run handles events until the stream ends.
//
// Recoverable errors (see IsRecoverable) are logged and the loop
// continues. Any other error closes the orchestrator and is returned.
// A close event, or closing the channel, closes the orchestrator and
// returns nil. Cancelling ctx closes the orchestrator and returns
// ctx.Err() before the next event is handled.
func (o *Orchestrator) Run(ctx context.Context, events <-chan Event) error {
	for {
		if err := ctx.Err(); err != nil {
			_ = o.Close()
			return err
		}

		var ev Event
		var ok bool
		select {
		case <-ctx.Done():
			_ = o.Close()
			return ctx.Err()
		case ev, ok = <-events:
		}
		if !ok {
			_ = o.Close()
			return nil
		}

		err := o.Handle(ev)
		if ev.Kind == EventClose && o.state == StateClosed {
			return nil
		}
		if err == nil {
			continue
		}
		if IsRecoverable(err) {
			o.log.Warn("postfx: event failed", "event", ev.Kind.String(), "err", err)
			continue
		}
		_ = o.Close()
		o.log.Error("postfx: stopping", "event", ev.Kind.String(), "err", err)
		return err
	}
}
