package observe

import (
	"testing"
	"time"
)

func TestSetPublishesOnlyDistinctValues(t *testing.T) {
	v := NewValue(1)
	var seen []int
	v.OnChange(func(n int) { seen = append(seen, n) })

	if v.Set(1) {
		t.Fatalf("setting the same value should report no change")
	}
	v.Set(2)
	v.Set(2)
	v.Set(3)
	if len(seen) != 2 || seen[0] != 2 || seen[1] != 3 {
		t.Fatalf("unexpected notifications %v", seen)
	}
	if v.Get() != 3 {
		t.Fatalf("get = %d", v.Get())
	}
}

func TestSubscribeDeliversCurrentThenLatest(t *testing.T) {
	v := NewValue("a")
	ch, cancel := v.Subscribe()
	defer cancel()

	if got := <-ch; got != "a" {
		t.Fatalf("first value = %q", got)
	}
	v.Set("b")
	v.Set("c")
	select {
	case got := <-ch:
		if got != "c" {
			t.Fatalf("expected latest value c, got %q", got)
		}
	case <-time.After(time.Second):
		t.Fatalf("timeout waiting for update")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed")
	}
	v.Set(5)
}

func TestUpdateIsAtomic(t *testing.T) {
	v := NewValue(0)
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				v.Update(func(n int) int { return n + 1 })
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	if v.Get() != 1000 {
		t.Fatalf("expected 1000, got %d", v.Get())
	}
}

func TestOnChangeCancel(t *testing.T) {
	v := NewValue(0)
	calls := 0
	stop := v.OnChange(func(int) { calls++ })
	v.Set(1)
	stop()
	v.Set(2)
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}
