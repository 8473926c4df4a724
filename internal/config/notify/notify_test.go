package notify

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestChangeType_String(t *testing.T) {
	tests := []struct {
		ct   ChangeType
		want string
	}{
		{ChangeSet, "set"},
		{ChangeReset, "reset"},
		{ChangeReload, "reload"},
		{ChangeType(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.ct.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestNotifier_Subscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var received atomic.Bool

	sub := n.Subscribe(func(change Change) {
		received.Store(true)
	})

	n.Notify(Change{Field: "sendInterval", Type: ChangeSet})

	if !received.Load() {
		t.Error("observer did not receive notification")
	}

	sub.Unsubscribe()

	received.Store(false)
	n.Notify(Change{Field: "viewPort", Type: ChangeSet})

	if received.Load() {
		t.Error("unsubscribed observer received notification")
	}
}

func TestNotifier_SubscribeField(t *testing.T) {
	n := New()
	defer n.Close()

	var layerChanges, pointChanges atomic.Int32

	n.SubscribeField("layers", func(change Change) {
		layerChanges.Add(1)
	})
	n.SubscribeField("amountTouchPoints", func(change Change) {
		pointChanges.Add(1)
	})

	n.NotifySet("layers", nil, 1, "set")
	n.NotifySet("amountTouchPoints", 3, 5, "set")
	n.NotifySet("layers", 1, 2, "set")
	n.NotifySet("viewPort", nil, 2, "set")

	if layerChanges.Load() != 2 {
		t.Errorf("layers observer received %d changes, want 2", layerChanges.Load())
	}
	if pointChanges.Load() != 1 {
		t.Errorf("touch point observer received %d changes, want 1", pointChanges.Load())
	}
}

func TestNotifier_NotifySet(t *testing.T) {
	n := New()
	defer n.Close()

	var receivedChange Change

	n.Subscribe(func(change Change) {
		receivedChange = change
	})

	n.NotifySet("sendInterval", 100, 50, "set")

	if receivedChange.Field != "sendInterval" {
		t.Errorf("Field = %q, want 'sendInterval'", receivedChange.Field)
	}
	if receivedChange.Type != ChangeSet {
		t.Errorf("Type = %v, want ChangeSet", receivedChange.Type)
	}
	if receivedChange.OldValue != 100 {
		t.Errorf("OldValue = %v, want 100", receivedChange.OldValue)
	}
	if receivedChange.NewValue != 50 {
		t.Errorf("NewValue = %v, want 50", receivedChange.NewValue)
	}
	if receivedChange.Source != "set" {
		t.Errorf("Source = %q, want 'set'", receivedChange.Source)
	}
}

func TestNotifier_NotifyReload(t *testing.T) {
	n := New()
	defer n.Close()

	var globalReceived, fieldReceived atomic.Bool

	n.Subscribe(func(change Change) {
		if change.Type == ChangeReload {
			globalReceived.Store(true)
		}
	})
	n.SubscribeField("layers", func(change Change) {
		if change.Type == ChangeReload {
			fieldReceived.Store(true)
		}
	})

	n.NotifyReload("restore")

	if !globalReceived.Load() {
		t.Error("global observer did not receive reload")
	}
	if !fieldReceived.Load() {
		t.Error("field observer did not receive reload")
	}
}

func TestNotifier_DeliveryOrder(t *testing.T) {
	n := New()
	defer n.Close()

	var order []int
	for i := 0; i < 5; i++ {
		i := i
		n.Subscribe(func(change Change) {
			order = append(order, i)
		})
	}

	n.NotifySet("camera", nil, nil, "set")

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want subscription order", order)
		}
	}
	if len(order) != 5 {
		t.Errorf("delivered to %d observers, want 5", len(order))
	}
}

func TestSubscription_Unsubscribe(t *testing.T) {
	n := New()
	defer n.Close()

	var count atomic.Int32

	sub := n.Subscribe(func(change Change) {
		count.Add(1)
	})

	n.Notify(Change{Field: "test", Type: ChangeSet})
	if count.Load() != 1 {
		t.Error("observer should receive first notification")
	}

	sub.Unsubscribe()

	n.Notify(Change{Field: "test", Type: ChangeSet})
	if count.Load() != 1 {
		t.Error("unsubscribed observer should not receive second notification")
	}

	// Unsubscribe again should be safe
	sub.Unsubscribe()

	var nilSub *Subscription
	nilSub.Unsubscribe()
}

func TestSubscription_UnsubscribeKeepsOthers(t *testing.T) {
	n := New()
	defer n.Close()

	var a, b atomic.Int32
	subA := n.Subscribe(func(Change) { a.Add(1) })
	n.Subscribe(func(Change) { b.Add(1) })

	subA.Unsubscribe()
	n.NotifySet("viewPort", nil, nil, "set")

	if a.Load() != 0 || b.Load() != 1 {
		t.Errorf("a = %d, b = %d, want 0 and 1", a.Load(), b.Load())
	}
	if n.Len() != 1 {
		t.Errorf("Len() = %d, want 1", n.Len())
	}
}

func TestBatch_Basic(t *testing.T) {
	n := New()
	defer n.Close()

	var changes []Change
	var mu sync.Mutex

	n.Subscribe(func(change Change) {
		mu.Lock()
		changes = append(changes, change)
		mu.Unlock()
	})

	batch := n.NewBatch()
	batch.Set("sendInterval", nil, 50, "restore")
	batch.Set("viewPort", nil, true, "restore")
	batch.Add(Change{Type: ChangeReload, Source: "restore"})

	if batch.Len() != 3 {
		t.Errorf("Len() = %d, want 3", batch.Len())
	}

	mu.Lock()
	if len(changes) != 0 {
		t.Error("changes sent before Commit()")
	}
	mu.Unlock()

	batch.Commit()

	mu.Lock()
	if len(changes) != 3 {
		t.Errorf("received %d changes after Commit(), want 3", len(changes))
	}
	if changes[2].Type != ChangeReload {
		t.Errorf("last change = %v, want reload", changes[2].Type)
	}
	mu.Unlock()

	if batch.Len() != 0 {
		t.Errorf("Len() = %d after Commit(), want 0", batch.Len())
	}
}

func TestBatch_Discard(t *testing.T) {
	n := New()
	defer n.Close()

	var count atomic.Int32

	n.Subscribe(func(change Change) {
		count.Add(1)
	})

	batch := n.NewBatch()
	batch.Set("test", nil, 1, "test")
	batch.Set("test2", nil, 2, "test")

	batch.Discard()

	if batch.Len() != 0 {
		t.Errorf("Len() = %d after Discard(), want 0", batch.Len())
	}

	if count.Load() != 0 {
		t.Error("observer received notification after Discard()")
	}
}

func TestNotifier_ConcurrentAccess(t *testing.T) {
	n := New()
	defer n.Close()

	var count atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.Subscribe(func(change Change) {
				count.Add(1)
			})
		}()
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n.NotifySet("test", nil, i, "test")
		}(i)
	}
	wg.Wait()

	// Each of 10 observers should receive 10 notifications
	expected := int32(100)
	if count.Load() != expected {
		t.Errorf("count = %d, want %d", count.Load(), expected)
	}
}

func TestNotifier_CloseIdempotent(t *testing.T) {
	n := New()
	n.Subscribe(func(Change) { t.Error("observer called after Close") })

	n.Close()
	n.Close()

	// Notify and Subscribe after close should not panic
	n.Notify(Change{Field: "test", Type: ChangeSet})
	n.Subscribe(func(Change) {}).Unsubscribe()
}
