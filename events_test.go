package postfx

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gogpu/wgpu/hal"
)

func feed(events ...Event) <-chan Event {
	ch := make(chan Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	return ch
}

func TestHandleDispatches(t *testing.T) {
	h := newHarness(t, 100, 100)

	if err := h.o.Handle(Redraw()); err != nil {
		t.Fatalf("Handle(redraw): %v", err)
	}
	if err := h.o.Handle(Resize(200, 150)); err != nil {
		t.Fatalf("Handle(resize): %v", err)
	}
	if w, ht := h.o.Size(); w != 200 || ht != 150 {
		t.Errorf("Size() = %dx%d, want 200x150", w, ht)
	}
	if err := h.o.Handle(Event{Kind: 99}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Handle(unknown) = %v, want ErrUnknownEvent", err)
	}
	if err := h.o.Handle(Close()); err != nil {
		t.Fatalf("Handle(close): %v", err)
	}
	if err := h.o.Handle(Event{Kind: 99}); !errors.Is(err, ErrClosed) {
		t.Errorf("Handle after close = %v, want ErrClosed", err)
	}
}

func TestRunUntilCloseEvent(t *testing.T) {
	h := newHarness(t, 800, 600)
	events := feed(Redraw(), Resize(1024, 768), Redraw(), Close(), Redraw())

	if err := h.o.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.o.State() != StateClosed {
		t.Errorf("state = %v, want closed", h.o.State())
	}
	st := h.o.Stats()
	if st.FramesSubmitted != 2 || st.ResizesApplied != 1 {
		t.Errorf("stats = %+v", st)
	}
	if len(events) != 1 {
		t.Errorf("events left = %d, want 1 (nothing read after close)", len(events))
	}
}

func TestRunContinuesAfterRecoverableErrors(t *testing.T) {
	h := newHarness(t, 800, 600)
	h.target.SetAvailable(false)
	errOOM := errors.New("out of memory")
	h.device.FailTexture = func(d *hal.TextureDescriptor) error {
		if d.Size.Width == 5000 {
			return errOOM
		}
		return nil
	}

	events := make(chan Event, 8)
	events <- Redraw()
	events <- Resize(5000, 5000)
	events <- Event{Kind: 77}
	events <- Resize(0, 0)
	events <- Redraw()
	close(events)

	if err := h.o.Run(context.Background(), events); err != nil {
		t.Fatalf("Run: %v", err)
	}
	st := h.o.Stats()
	if st.FramesSkipped != 2 || st.ResizesRefused != 1 || st.Suspensions != 1 {
		t.Errorf("stats = %+v", st)
	}
	if h.o.State() != StateClosed {
		t.Errorf("state = %v, want closed after channel close", h.o.State())
	}
}

func TestRunStopsOnFatalError(t *testing.T) {
	h := newHarness(t, 64, 64)
	h.queue.SubmitErr = hal.ErrDeviceLost

	err := h.o.Run(context.Background(), feed(Redraw(), Redraw()))
	if !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("Run = %v, want ErrDeviceLost", err)
	}
	if h.o.State() != StateClosed {
		t.Errorf("state = %v, want closed", h.o.State())
	}
	if h.device.Live("texture") != 0 {
		t.Errorf("leaked %d textures", h.device.Live("texture"))
	}
}

func TestRunContextCancel(t *testing.T) {
	h := newHarness(t, 64, 64)
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan Event)

	done := make(chan error, 1)
	go func() { done <- h.o.Run(ctx, events) }()

	events <- Redraw()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.o.State() != StateClosed {
		t.Errorf("state = %v, want closed", h.o.State())
	}
}

func TestRunCanceledBeforeStart(t *testing.T) {
	h := newHarness(t, 64, 64)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := h.o.Run(ctx, feed(Redraw())); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
	if h.o.Stats().FramesSubmitted != 0 {
		t.Error("handled an event after cancellation")
	}
}

func TestEventKindString(t *testing.T) {
	tests := map[EventKind]string{
		EventRedraw:   "redraw",
		EventResize:   "resize",
		EventClose:    "close",
		EventKind(42): "EventKind(42)",
	}
	for k, want := range tests {
		if got := k.String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	}
}

func TestIsRecoverable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, true},
		{ErrSurfaceUnavailable, true},
		{ErrResourceCreation, true},
		{ErrFrameInProgress, true},
		{ErrUnknownEvent, true},
		{ErrDeviceLost, false},
		{ErrClosed, false},
		{errors.New("other"), false},
	}
	for _, tt := range tests {
		if got := IsRecoverable(tt.err); got != tt.want {
			t.Errorf("IsRecoverable(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
