package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("10.0.0.1") {
			t.Fatalf("RateLimiter.Allow() request %d got = false, want true", i+1)
		}
	}
	if rl.Allow("10.0.0.1") {
		t.Errorf("RateLimiter.Allow() over burst got = true, want false")
	}
	if !rl.Allow("10.0.0.2") {
		t.Errorf("RateLimiter.Allow() other client got = false, want true")
	}
}
