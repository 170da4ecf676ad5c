package connection

import (
	"testing"
	"time"
)

func TestBackoff_Next(t *testing.T) {
	b := Backoff{Floor: time.Second, Ceiling: 8 * time.Second}

	tests := []struct {
		name string
		cur  time.Duration
		want time.Duration
	}{
		{"floor doubles", time.Second, 2 * time.Second},
		{"doubles", 2 * time.Second, 4 * time.Second},
		{"reaches ceiling", 4 * time.Second, 8 * time.Second},
		{"stays at ceiling", 8 * time.Second, 8 * time.Second},
		{"zero clamps to floor", 0, time.Second},
		{"above ceiling clamps", 20 * time.Second, 8 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := b.Next(tt.cur); got != tt.want {
				t.Errorf("Next(%v) = %v, want %v", tt.cur, got, tt.want)
			}
		})
	}
}

func TestBackoff_Sequence(t *testing.T) {
	b := Backoff{Floor: time.Second, Ceiling: 8 * time.Second}

	want := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}

	d := b.Floor
	for i, w := range want {
		d = b.Next(d)
		if d != w {
			t.Errorf("step %d: Next = %v, want %v", i+1, d, w)
		}
	}
}

func TestBackoff_NonDecreasing(t *testing.T) {
	b := Backoff{Floor: 250 * time.Millisecond, Ceiling: 5 * time.Second}

	prev := b.Floor
	for k := 1; k <= 20; k++ {
		d := b.Next(prev)
		if d < prev {
			t.Fatalf("step %d: Next(%v) = %v decreased", k, prev, d)
		}
		if d > b.Ceiling {
			t.Fatalf("step %d: Next(%v) = %v exceeds ceiling", k, prev, d)
		}
		prev = d
	}
}
