package oracle

import (
	"context"
	"sync"
)

// Tracker wraps a Client and tracks token usage across calls.
type Tracker struct {
	next Client

	mu        sync.Mutex
	inputTok  int64
	outputTok int64
	calls     int
	failures  int
}

// Track wraps next with a token tracker.
func Track(next Client) *Tracker {
	return &Tracker{next: next}
}

// Complete forwards the call and records its usage.
func (t *Tracker) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := t.next.Complete(ctx, req)
	if err != nil {
		t.mu.Lock()
		t.calls++
		t.failures++
		t.mu.Unlock()
		return resp, err
	}
	t.Add(resp.InputTokens, resp.OutputTokens)
	return resp, nil
}

// Add records token usage from a successful call.
func (t *Tracker) Add(input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok += input
	t.outputTok += output
	t.calls++
}

// Total returns the total input and output tokens tracked.
func (t *Tracker) Total() (input, output int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inputTok, t.outputTok
}

// Calls returns the number of calls made, failed ones included.
func (t *Tracker) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls
}

// Failures returns the number of calls that returned an error.
func (t *Tracker) Failures() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.failures
}

// Reset clears all tracked usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inputTok = 0
	t.outputTok = 0
	t.calls = 0
	t.failures = 0
}
