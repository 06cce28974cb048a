package price

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStaticLookup(t *testing.T) {
	src := NewStatic(map[string]float64{
		"0xAAAA000000000000000000000000000000000001": 1.0,
	})

	usd, err := src.GetPrice(context.Background(), "0xaaaa000000000000000000000000000000000001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if usd != 1.0 {
		t.Fatalf("price = %v, want 1.0", usd)
	}

	if _, err := src.GetPrice(context.Background(), "0xdead"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}

type countingSource struct {
	calls int
	usd   float64
	err   error
}

func (c *countingSource) GetPrice(context.Context, string) (float64, error) {
	c.calls++
	return c.usd, c.err
}

func TestCachedServesFreshEntries(t *testing.T) {
	inner := &countingSource{usd: 2.5}
	cached := NewCached(inner, time.Minute)

	now := time.Unix(1700000000, 0)
	cached.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		usd, err := cached.GetPrice(context.Background(), "0xabc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if usd != 2.5 {
			t.Fatalf("price = %v, want 2.5", usd)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.calls)
	}

	now = now.Add(2 * time.Minute)
	if _, err := cached.GetPrice(context.Background(), "0xabc"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner called %d times after expiry, want 2", inner.calls)
	}
}

func TestCachedPropagatesFailure(t *testing.T) {
	inner := &countingSource{err: ErrUnavailable}
	cached := NewCached(inner, time.Minute)

	if _, err := cached.GetPrice(context.Background(), "0xabc"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("got %v, want ErrUnavailable", err)
	}
}
