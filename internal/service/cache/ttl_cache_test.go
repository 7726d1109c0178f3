package cache

import (
	"testing"
	"time"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache()

	if _, ok, _ := c.GetBytes("missing"); ok {
		t.Fatalf("expected miss")
	}

	if err := c.SetBytes("k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, ok, err := c.GetBytes("k")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(v) != "v" {
		t.Fatalf("expected v, got %q", v)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	c := NewTTLCache()
	if err := c.SetBytes("k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.GetBytes("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	c := NewTTLCache()
	if err := c.SetBytes("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, ok, _ := c.GetBytes("k"); !ok {
		t.Fatalf("zero TTL entry should not expire")
	}
}

func TestCacheKeys(t *testing.T) {
	if got := PredictionKey("aapl", 60, "lstm"); got != "predict:AAPL:60:lstm" {
		t.Fatalf("unexpected prediction key %q", got)
	}
	if got := HistoryKey("hdfcbank.ns", 30); got != "history:HDFCBANK.NS:30" {
		t.Fatalf("unexpected history key %q", got)
	}
}
