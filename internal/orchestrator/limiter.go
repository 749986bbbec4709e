package orchestrator

import (
	"context"
	"math"
	"sync"

	"github.com/stagehand-dev/stagehand/pkg/models"
)

// MaxConcurrent computes an agent's in-flight cap as a fraction of the
// configured parallelism, floored, minimum 1.
func MaxConcurrent(fraction float64, parallelism int) int {
	n := int(math.Floor(fraction * float64(parallelism)))
	if n < 1 {
		n = 1
	}
	return n
}

// Limiter runs an ordered sequence of subtasks with at most
// maxConcurrent in flight at any instant. Admission follows input
// order; results are appended in completion order.
type Limiter struct {
	maxConcurrent int
}

// NewLimiter creates a Limiter with the given in-flight cap (minimum 1).
func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Limiter{maxConcurrent: maxConcurrent}
}

// MaxConcurrent returns the configured in-flight cap.
func (l *Limiter) MaxConcurrent() int {
	return l.maxConcurrent
}

// Run executes every subtask through exec. A slot is held before a
// subtask starts, so the cap is never exceeded, not even transiently.
// Results arrive in completion order, one per input. The first exec
// failure cancels the remaining work and is returned after all
// in-flight subtasks have finished.
func (l *Limiter) Run(ctx context.Context, subtasks []models.Subtask, exec func(context.Context, models.Subtask) (models.SubtaskResult, error)) ([]models.SubtaskResult, error) {
	if len(subtasks) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		results  []models.SubtaskResult
		firstErr error
	)
	slots := make(chan struct{}, l.maxConcurrent)
	var wg sync.WaitGroup

	for _, st := range subtasks {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			mu.Lock()
			defer mu.Unlock()
			if firstErr != nil {
				return results, firstErr
			}
			return results, ctx.Err()
		}

		wg.Add(1)
		go func(st models.Subtask) {
			defer wg.Done()
			defer func() { <-slots }()

			res, err := exec(ctx, st)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				return
			}
			results = append(results, res)
		}(st)
	}

	wg.Wait()
	mu.Lock()
	defer mu.Unlock()
	return results, firstErr
}
