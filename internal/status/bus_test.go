package status

import "testing"

func TestBus(t *testing.T) {
	t.Run("delivers to every subscriber", func(t *testing.T) {
		bus := NewBus()
		var first, second []Kind
		bus.Subscribe(func(e Event) { first = append(first, e.Kind) })
		bus.Subscribe(func(e Event) { second = append(second, e.Kind) })

		bus.Publish(Event{Kind: KindStarted})
		bus.Publish(Event{Kind: KindCompleted})

		for name, got := range map[string][]Kind{"first": first, "second": second} {
			if len(got) != 2 || got[0] != KindStarted || got[1] != KindCompleted {
				t.Errorf("Subscriber %s got %v, want [started completed]", name, got)
			}
		}
	})

	t.Run("unsubscribe stops delivery", func(t *testing.T) {
		bus := NewBus()
		calls := 0
		unsubscribe := bus.Subscribe(func(e Event) { calls++ })

		bus.Publish(Event{Kind: KindStarted})
		unsubscribe()
		bus.Publish(Event{Kind: KindCompleted})

		if calls != 1 {
			t.Errorf("Expected 1 delivery, got %d", calls)
		}

		// Double unsubscribe is harmless.
		unsubscribe()
	})

	t.Run("panicking subscriber does not affect others", func(t *testing.T) {
		bus := NewBus()
		bus.Subscribe(func(e Event) { panic("subscriber bug") })
		delivered := false
		bus.Subscribe(func(e Event) { delivered = true })

		bus.Publish(Event{Kind: KindFailed, Message: "boom", Retryable: true})

		if !delivered {
			t.Error("Expected healthy subscriber to receive the event")
		}
	})

	t.Run("publish without subscribers is a no-op", func(t *testing.T) {
		NewBus().Publish(Event{Kind: KindOffline})
	})
}
