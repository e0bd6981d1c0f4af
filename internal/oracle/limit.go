package oracle

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultMaxConcurrent is the default cap on outstanding Oracle calls.
const DefaultMaxConcurrent = 256

// Limiter caps the number of in-flight calls across every caller sharing it,
// and optionally throttles the call rate.
//
// Only the Oracle call itself holds a slot, so a branch waiting on its
// children never blocks the children from running.
type Limiter struct {
	next     Client
	sem      *semaphore.Weighted
	throttle *rate.Limiter

	inFlight atomic.Int64
	peak     atomic.Int64
}

// Limit wraps next with a concurrency cap of maxConcurrent calls (values below
// 1 use DefaultMaxConcurrent) and, when rps > 0, a requests-per-second throttle.
func Limit(next Client, maxConcurrent int, rps float64) *Limiter {
	if maxConcurrent < 1 {
		maxConcurrent = DefaultMaxConcurrent
	}

	l := &Limiter{
		next: next,
		sem:  semaphore.NewWeighted(int64(maxConcurrent)),
	}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		l.throttle = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return l
}

// Complete waits for a slot, then forwards the call.
func (l *Limiter) Complete(ctx context.Context, req Request) (Response, error) {
	if l.throttle != nil {
		if err := l.throttle.Wait(ctx); err != nil {
			return Response{}, commErr("limiter", err)
		}
	}
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return Response{}, commErr("limiter", err)
	}
	defer l.sem.Release(1)

	n := l.inFlight.Add(1)
	defer l.inFlight.Add(-1)
	for {
		p := l.peak.Load()
		if n <= p || l.peak.CompareAndSwap(p, n) {
			break
		}
	}

	return l.next.Complete(ctx, req)
}

// InFlight returns the number of calls currently holding a slot.
func (l *Limiter) InFlight() int64 {
	return l.inFlight.Load()
}

// Peak returns the highest number of simultaneous calls observed.
func (l *Limiter) Peak() int64 {
	return l.peak.Load()
}
