package orchestrator

import (
	"context"
	"testing"
	"time"
)

func TestBackoffDelays(t *testing.T) {
	b := NewBackoff()
	tests := []struct {
		retry int
		want  time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},
		{6, 30 * time.Second},
		{100, 30 * time.Second},
	}
	for _, tt := range tests {
		if got := b.Delay(tt.retry); got != tt.want {
			t.Errorf("Delay(%d) = %s, want %s", tt.retry, got, tt.want)
		}
	}
}

func TestBackoffDelayFloor(t *testing.T) {
	b := NewBackoff()
	if got := b.Delay(0); got != 2*time.Second {
		t.Errorf("Delay(0) = %s, want %s", got, 2*time.Second)
	}
	if got := b.Delay(-3); got != 2*time.Second {
		t.Errorf("Delay(-3) = %s, want %s", got, 2*time.Second)
	}
}

func TestDefaultSleepHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := defaultSleep(ctx, time.Minute); err == nil {
		t.Fatal("expected context error from canceled sleep")
	}
}

func TestDefaultSleepCompletes(t *testing.T) {
	if err := defaultSleep(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("defaultSleep returned error: %v", err)
	}
}
