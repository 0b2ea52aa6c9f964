package assignment

import (
	"testing"
	"time"
)

func TestCurrent(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		a    Assignment
		want bool
	}{
		{"active no expiry", Assignment{IsActive: true}, true},
		{"active future expiry", Assignment{IsActive: true, ExpiresAt: &future}, true},
		{"active past expiry", Assignment{IsActive: true, ExpiresAt: &past}, false},
		{"expiry exactly now", Assignment{IsActive: true, ExpiresAt: &now}, false},
		{"inactive", Assignment{IsActive: false}, false},
		{"inactive future expiry", Assignment{IsActive: false, ExpiresAt: &future}, false},
	}
	for _, tc := range cases {
		if got := tc.a.Current(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
