package events

import "testing"

func TestReplayThenLiveDelivery(t *testing.T) {
	t.Parallel()
	b := NewBus()
	b.Publish("t1", "log", "before subscribe")

	sub := b.Subscribe("t1", 0)
	defer sub.Close()
	if len(sub.Replay) != 1 {
		t.Fatalf("expected 1 replayed event, got %d", len(sub.Replay))
	}

	b.Publish("t1", "progress", 50)
	ev := <-sub.Live
	if ev.Type != "progress" {
		t.Fatalf("expected live progress event, got %s", ev.Type)
	}
}

func TestResultIsTerminal(t *testing.T) {
	t.Parallel()
	b := NewBus()
	b.Publish("t1", "result", "done")
	b.Publish("t1", "log", "should not appear")

	sub := b.Subscribe("t1", 0)
	defer sub.Close()
	if len(sub.Replay) != 1 || sub.Replay[0].Type != "result" {
		t.Fatalf("expected only the terminal result event replayed, got %+v", sub.Replay)
	}
	if _, ok := <-sub.Live; ok {
		t.Fatal("expected Live to be closed once a terminal event has been recorded")
	}
}

func TestReconnectOnlyReplaysNewEvents(t *testing.T) {
	t.Parallel()
	b := NewBus()
	b.Publish("t1", "log", "one")
	b.Publish("t1", "log", "two")

	first := b.Subscribe("t1", 0)
	lastSeen := first.Replay[len(first.Replay)-1].ID
	first.Close()

	b.Publish("t1", "log", "three")

	second := b.Subscribe("t1", lastSeen)
	if len(second.Replay) != 1 || second.Replay[0].Payload != "three" {
		t.Fatalf("expected only the new event replayed, got %+v", second.Replay)
	}
}

func TestSlowSubscriberDroppedWithNotification(t *testing.T) {
	t.Parallel()
	b := NewBus()
	sub := b.Subscribe("t1", 0)
	defer sub.Close()

	for i := 0; i < subscriberBuffer+10; i++ {
		b.Publish("t1", "log", i)
	}

	var sawDrop bool
	for ev := range sub.Live {
		if ev.Type == "backpressure_dropped" {
			sawDrop = true
		}
	}
	if !sawDrop {
		t.Fatal("expected a backpressure_dropped notification after overflowing the subscriber buffer")
	}
}
