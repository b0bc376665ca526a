package events

import (
	"testing"
	"time"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBus()
	ch1, cancel1 := b.Subscribe(4)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(4)
	defer cancel2()

	b.Publish(PhaseChanged{Phase: PhaseRecording})

	for i, ch := range []<-chan any{ch1, ch2} {
		select {
		case ev := <-ch:
			pc, ok := ev.(PhaseChanged)
			if !ok || pc.Phase != PhaseRecording {
				t.Fatalf("subscriber %d got %+v", i, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never received the event", i)
		}
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := NewBus()
	_, cancel := b.Subscribe(1)
	defer cancel()

	// A full subscriber buffer must not block publishers.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Amplitude{Level: 0.5})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

func TestCancelClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(4)
	cancel()

	if _, open := <-ch; open {
		t.Fatal("channel still open after cancel")
	}
	// Double cancel and publishing after cancel must be safe.
	cancel()
	b.Publish(HistoryUpdated{})
}
