// Package util holds small generic helpers.
package util

import (
	"context"
	"errors"
	"sync"
)

// Parallel calls fn for every input using at most workerLimit goroutines. When
// failFast is set the first error cancels the context handed to the remaining
// calls; otherwise every input is attempted. All errors are joined.
func Parallel[T any](ctx context.Context, inputs []T, workerLimit int, failFast bool, fn func(context.Context, T) error) error {
	if len(inputs) == 0 {
		return nil
	}
	workerLimit = max(1, min(workerLimit, len(inputs)))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tasks := make(chan T)
	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for range workerLimit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range tasks {
				if err := fn(ctx, item); err != nil {
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
					if failFast {
						cancel()
					}
				}
			}
		}()
	}

feed:
	for _, item := range inputs {
		select {
		case <-ctx.Done():
			break feed
		case tasks <- item:
		}
	}
	close(tasks)
	wg.Wait()
	return errors.Join(errs...)
}
