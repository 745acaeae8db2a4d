// Package sessionpool manages a fixed-size array of httpsession.Session
// wrappers with non-blocking, busy-wait acquire/release, per spec §4.5.
package sessionpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/LimitlessGreen/tubaf-planner-sub000/internal/httpsession"
)

const sweepInterval = 10 * time.Millisecond

type slot struct {
	session *httpsession.Session
	busy    int32
}

// Pool is a bounded set of sessions acquired by busy-wait sweep.
type Pool struct {
	slots []*slot
}

// New builds a Pool of the given size, each slot wrapping a fresh Session.
func New(baseURL, userAgent string, timeout time.Duration, size int) *Pool {
	slots := make([]*slot, size)
	for i := range slots {
		slots[i] = &slot{session: httpsession.New(baseURL, userAgent, timeout)}
	}
	return &Pool{slots: slots}
}

// Acquire blocks (sweeping every 10ms) until a session is free or ctx is
// done. The returned release func must be called exactly once.
func (p *Pool) Acquire(ctx context.Context) (*httpsession.Session, func(), error) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		for _, s := range p.slots {
			if atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
				return s.session, func() { atomic.StoreInt32(&s.busy, 0) }, nil
			}
		}

		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Size reports the number of slots in the pool.
func (p *Pool) Size() int {
	return len(p.slots)
}
