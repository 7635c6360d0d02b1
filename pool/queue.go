package pool

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/panjf2000/ants/v2"
	"github.com/sirupsen/logrus"
	"github.com/t2bot/data-package-repo/common/logging"
)

// Queue is a bounded worker pool. Tasks block on Schedule when every worker
// is busy.
type Queue struct {
	name string
	pool *ants.Pool
}

func NewQueue(workers int, name string) (*Queue, error) {
	p, err := ants.NewPool(workers,
		ants.WithExpiryDuration(time.Minute),
		ants.WithNonblocking(false),
		ants.WithLogger(&logging.SendToDebugLogger{}),
		ants.WithPanicHandler(func(r interface{}) {
			logrus.WithField("queue", name).Errorf("Worker panic: %v", r)
			if e, ok := r.(error); ok {
				sentry.CaptureException(e)
			} else {
				sentry.CaptureMessage(fmt.Sprintf("panic in queue %s: %v", name, r))
			}
		}),
	)
	if err != nil {
		return nil, err
	}
	return &Queue{name: name, pool: p}, nil
}

func (p *Queue) Schedule(task func()) error {
	return p.pool.Submit(task)
}

func (p *Queue) Tune(workers int) {
	p.pool.Tune(workers)
}

func (p *Queue) Release() {
	p.pool.Release()
}
