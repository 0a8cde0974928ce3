// Package poller provides a periodic fetch-and-diff primitive.
//
// A Poller fetches a value, reduces it to an opaque signature and compares
// it to the signature of the last successful fetch. Only a different
// signature replaces the retained value and fires the change callback, so
// identical polls cause no re-render and no cascading refresh.
//
// The last signature starts empty, which makes the very first successful
// poll report a change. A failed fetch is "no new information": the
// signature and value are left untouched and nothing fires.
package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spaolacci/murmur3"
)

// Fetcher retrieves the current value from the external source
type Fetcher[T any] func(ctx context.Context) (T, error)

// SignatureFunc reduces a value to a token that is equal for equal values
type SignatureFunc[T any] func(v T) (string, error)

// Option configures a Poller
type Option[T any] func(*Poller[T])

// WithSignature replaces the default JSON+murmur3 signature
func WithSignature[T any](fn SignatureFunc[T]) Option[T] {
	return func(p *Poller[T]) {
		p.signature = fn
	}
}

// WithOnChange sets the callback fired after a changed value is retained.
// The callback runs outside the poller's lock and may call Poll again.
func WithOnChange[T any](fn func(T)) Option[T] {
	return func(p *Poller[T]) {
		p.onChange = fn
	}
}

// WithOnError sets the callback fired when a fetch fails
func WithOnError[T any](fn func(error)) Option[T] {
	return func(p *Poller[T]) {
		p.onError = fn
	}
}

// Poller periodically fetches a value of type T and reports changes
type Poller[T any] struct {
	name      string
	fetch     Fetcher[T]
	signature SignatureFunc[T]
	onChange  func(T)
	onError   func(error)

	mu      sync.Mutex
	lastSig string
	value   T
	stats   Stats
}

// Stats counts poll outcomes
type Stats struct {
	Polls     uint64
	Changes   uint64
	Failures  uint64
	LastPoll  time.Time
	LastError error
}

// New creates a poller named name (used in logs and errors)
func New[T any](name string, fetch Fetcher[T], opts ...Option[T]) *Poller[T] {
	p := &Poller[T]{
		name:      name,
		fetch:     fetch,
		signature: JSONSignature[T],
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the poller's name
func (p *Poller[T]) Name() string {
	return p.name
}

// Poll performs one fetch-and-compare cycle. It returns true when the
// fetched value differs from the last observed one. Concurrent calls are
// allowed; they are resolved by value comparison, not by cancellation.
func (p *Poller[T]) Poll(ctx context.Context) (bool, error) {
	v, err := p.fetch(ctx)
	if err != nil {
		p.recordFailure(err)
		return false, fmt.Errorf("%s poll failed: %w", p.name, err)
	}

	sig, err := p.signature(v)
	if err != nil {
		p.recordFailure(err)
		return false, fmt.Errorf("%s signature failed: %w", p.name, err)
	}

	p.mu.Lock()
	p.stats.Polls++
	p.stats.LastPoll = time.Now()
	p.stats.LastError = nil
	if sig == p.lastSig {
		p.mu.Unlock()
		return false, nil
	}
	p.lastSig = sig
	p.value = v
	p.stats.Changes++
	onChange := p.onChange
	p.mu.Unlock()

	if onChange != nil {
		onChange(v)
	}
	return true, nil
}

// Run polls immediately and then every interval until ctx is done.
// Errors never stop the loop; they go to the OnError callback.
func (p *Poller[T]) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		_, _ = p.Poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Value returns the last retained value (zero before the first change)
func (p *Poller[T]) Value() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Signature returns the last observed signature (empty before the first change)
func (p *Poller[T]) Signature() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSig
}

// Stats returns a snapshot of the poll counters
func (p *Poller[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Reset forgets the last observed value so the next poll reports a change
func (p *Poller[T]) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	var zero T
	p.lastSig = ""
	p.value = zero
}

func (p *Poller[T]) recordFailure(err error) {
	p.mu.Lock()
	p.stats.Polls++
	p.stats.Failures++
	p.stats.LastPoll = time.Now()
	p.stats.LastError = err
	onError := p.onError
	p.mu.Unlock()

	if onError != nil {
		onError(err)
	}
}

// JSONSignature serializes v as JSON and hashes the bytes with murmur3-128.
func JSONSignature[T any](v T) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	h1, h2 := murmur3.Sum128(data)
	return fmt.Sprintf("%016x%016x", h1, h2), nil
}
