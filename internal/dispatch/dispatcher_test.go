package dispatch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func gatedHandler(gate chan struct{}) Handler[string] {
	return func(context.Context, string) {
		<-gate
	}
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	got := make(chan string, 4)
	d := New(Config{BufferSize: 4}, func(_ context.Context, v string) {
		got <- v
	})
	defer d.Close()

	for _, v := range []string{"a", "b", "c"} {
		if !d.Submit(context.Background(), v) {
			t.Fatalf("submit %q rejected", v)
		}
	}

	for _, want := range []string{"a", "b", "c"} {
		select {
		case v := <-got:
			if v != want {
				t.Fatalf("expected %q, got %q", want, v)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %q", want)
		}
	}
}

func TestDispatcherDropIfFullDoesNotBlock(t *testing.T) {
	gate := make(chan struct{})
	d := New(Config{BufferSize: 1, DropIfFull: true}, gatedHandler(gate))
	defer func() {
		close(gate)
		d.Close()
	}()

	d.Submit(context.Background(), "e1")
	d.Submit(context.Background(), "e2")

	start := time.Now()
	d.Submit(context.Background(), "e3")
	if time.Since(start) > 100*time.Millisecond {
		t.Fatal("expected non-blocking submit when DropIfFull is true")
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped counter to increment when queue is full")
	}
}

func TestDispatcherBlocksUntilSpace(t *testing.T) {
	gate := make(chan struct{})
	d := New(Config{BufferSize: 1}, gatedHandler(gate))
	defer func() {
		close(gate)
		d.Close()
	}()

	d.Submit(context.Background(), "e1")
	d.Submit(context.Background(), "e2")

	done := make(chan struct{})
	go func() {
		d.Submit(context.Background(), "e3")
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("expected submit to block while buffer is full")
	case <-time.After(150 * time.Millisecond):
	}

	gate <- struct{}{}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected blocked submit to proceed after space is available")
	}
}

func TestDispatcherBlockingSubmitHonorsContext(t *testing.T) {
	gate := make(chan struct{})
	d := New(Config{BufferSize: 1}, gatedHandler(gate))
	defer func() {
		close(gate)
		d.Close()
	}()

	d.Submit(context.Background(), "e1")
	d.Submit(context.Background(), "e2")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if d.Submit(ctx, "e3") {
		t.Fatal("expected submit to give up when the context ends")
	}
}

func TestDispatcherCloseDrainsQueue(t *testing.T) {
	var handled atomic.Int64
	d := New(Config{BufferSize: 16}, func(context.Context, int) {
		time.Sleep(time.Millisecond)
		handled.Add(1)
	})

	for i := 0; i < 10; i++ {
		d.Submit(context.Background(), i)
	}
	d.Close()

	if handled.Load() != 10 {
		t.Fatalf("expected all 10 queued values handled on close, got %d", handled.Load())
	}
}

func TestDispatcherCloseIdempotentAndSubmitAfterCloseSafe(t *testing.T) {
	d := New[string](Config{BufferSize: 4}, nil)

	d.Submit(context.Background(), "e1")
	d.Close()
	d.Close()
	if d.Submit(context.Background(), "e2") {
		t.Fatal("expected submit after close to be rejected")
	}

	var nilDispatcher *Dispatcher[string]
	if nilDispatcher.Submit(context.Background(), "x") || nilDispatcher.Dropped() != 0 {
		t.Fatal("nil dispatcher should be inert")
	}
	nilDispatcher.Close()
}
