package ratelimit

import "testing"

func TestAllowExhaustsBurst(t *testing.T) {
	l := NewKeyedLimiter(60, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst must pass", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("request beyond burst must be denied")
	}
}

func TestKeysAreIndependent(t *testing.T) {
	l := NewKeyedLimiter(60, 1)

	if !l.Allow("10.0.0.1") {
		t.Fatalf("first key must pass")
	}
	if l.Allow("10.0.0.1") {
		t.Fatalf("first key burst exhausted")
	}
	if !l.Allow("10.0.0.2") {
		t.Fatalf("second key has its own bucket")
	}
}
