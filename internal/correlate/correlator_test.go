package correlate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

func testCorrelator() *Correlator {
	return New(0, nil)
}

func TestRequestIDsAreUniqueAndPrefixed(t *testing.T) {
	c := testCorrelator()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		p := c.Register("s1")
		if !strings.HasPrefix(p.RequestID, "req_") {
			t.Fatalf("request id %q lacks req_ prefix", p.RequestID)
		}
		if seen[p.RequestID] {
			t.Fatalf("duplicate request id %q", p.RequestID)
		}
		seen[p.RequestID] = true
	}
}

// Delivering replies in any permuted order must resolve each waiter with its
// own value, never another's.
func TestCorrelationUnderPermutedDelivery(t *testing.T) {
	c := testCorrelator()
	const n = 50

	pendings := make([]*Pending, n)
	for i := range pendings {
		pendings[i] = c.Register("sess")
	}

	results := make([]json.RawMessage, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range pendings {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Await(context.Background(), pendings[i], 5*time.Second)
		}(i)
	}

	// Deliver in reverse order.
	for i := n - 1; i >= 0; i-- {
		payload := json.RawMessage(fmt.Sprintf(`{"n":%d}`, i))
		if !c.Deliver(pendings[i].RequestID, payload, nil) {
			t.Errorf("Deliver(%d) found no waiter", i)
		}
	}
	wg.Wait()

	for i := range pendings {
		if errs[i] != nil {
			t.Fatalf("await %d: %v", i, errs[i])
		}
		want := fmt.Sprintf(`{"n":%d}`, i)
		if string(results[i]) != want {
			t.Errorf("await %d got %s, want %s", i, results[i], want)
		}
	}
	if c.PendingCount() != 0 {
		t.Errorf("pending table not empty: %d", c.PendingCount())
	}
}

// Session teardown must resolve all of that session's waiters promptly, not
// after their individual timeouts.
func TestCancelAllForFailsFast(t *testing.T) {
	c := testCorrelator()
	const k = 8

	var wg sync.WaitGroup
	errs := make([]error, k)
	pendings := make([]*Pending, k)
	for i := 0; i < k; i++ {
		pendings[i] = c.Register("dying")
	}
	other := c.Register("healthy")

	start := time.Now()
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Await(context.Background(), pendings[i], 30*time.Second)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	if got := c.CancelAllFor("dying"); got != k {
		t.Errorf("CancelAllFor cancelled %d, want %d", got, k)
	}
	wg.Wait()

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("cancellation took %s, expected well under the 30s timeout", elapsed)
	}
	for i, err := range errs {
		if !errors.Is(err, ErrSessionClosed) {
			t.Errorf("await %d: got %v, want ErrSessionClosed", i, err)
		}
	}

	// The other session's waiter is untouched.
	if c.PendingCount() != 1 {
		t.Errorf("pending = %d, want 1 (the healthy session)", c.PendingCount())
	}
	c.Deliver(other.RequestID, json.RawMessage(`{}`), nil)
}

func TestAwaitTimeout(t *testing.T) {
	c := testCorrelator()
	p := c.Register("s")

	start := time.Now()
	_, err := c.Await(context.Background(), p, 50*time.Millisecond)
	elapsed := time.Since(start)

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatal("timeout error should carry diagnostics")
	}
	if te.RequestID != p.RequestID {
		t.Errorf("diagnostic request id = %q, want %q", te.RequestID, p.RequestID)
	}
	if elapsed < 40*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("timeout fired after %s, want ~50ms", elapsed)
	}
	// No memory growth under repeated timeouts.
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d after timeout, want 0", c.PendingCount())
	}
}

func TestLateDeliveryIsDiscarded(t *testing.T) {
	c := testCorrelator()
	p := c.Register("s")
	if _, err := c.Await(context.Background(), p, 10*time.Millisecond); !errors.Is(err, ErrTimeout) {
		t.Fatalf("setup: %v", err)
	}
	if c.Deliver(p.RequestID, json.RawMessage(`{}`), nil) {
		t.Error("late delivery should find no waiter")
	}
	if c.Deliver("req_never_existed", json.RawMessage(`{}`), nil) {
		t.Error("unknown delivery should find no waiter")
	}
}

func TestDeliverErrorPayload(t *testing.T) {
	c := testCorrelator()
	p := c.Register("s")

	done := make(chan error, 1)
	go func() {
		_, err := c.Await(context.Background(), p, time.Second)
		done <- err
	}()
	c.Deliver(p.RequestID, nil, json.RawMessage(`{"message":"node not found"}`))

	err := <-done
	var re *ReplyError
	if !errors.As(err, &re) {
		t.Fatalf("got %v, want ReplyError", err)
	}
	if string(re.Payload) != `{"message":"node not found"}` {
		t.Errorf("payload = %s", re.Payload)
	}
}

func TestAbandonRemovesSlot(t *testing.T) {
	c := testCorrelator()
	p := c.Register("s")
	c.Abandon(p)
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d after abandon, want 0", c.PendingCount())
	}
}

func TestAwaitContextCancel(t *testing.T) {
	c := testCorrelator()
	p := c.Register("s")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	_, err := c.Await(ctx, p, 30*time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d after cancel, want 0", c.PendingCount())
	}
}
