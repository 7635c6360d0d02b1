package pool

import (
	"context"
	"sync"

	"github.com/t2bot/data-package-repo/util"
)

// RunAll runs every task on the queue and waits for them. The first task to
// fail cancels the context handed to the others; tasks which have not started
// by then are skipped. The first error is returned.
func (p *Queue) RunAll(ctx context.Context, tasks []func(ctx context.Context) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := &sync.WaitGroup{}
	errLock := &sync.Mutex{}
	var firstErr error
	fail := func(err error) {
		errLock.Lock()
		defer errLock.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for _, task := range tasks {
		task := task
		wg.Add(1)
		err := p.Schedule(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(util.PanicToError(r))
				}
			}()
			if ctx.Err() != nil {
				return
			}
			if err := task(ctx); err != nil {
				fail(err)
			}
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}

	wg.Wait()
	if firstErr == nil && ctx.Err() != nil {
		// parent was cancelled
		return ctx.Err()
	}
	return firstErr
}
