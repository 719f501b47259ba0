package contactsync

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"ringroster/internal/platform/logger"
)

// DefaultPageSize is used when Options.PageSize is not positive
const DefaultPageSize = 25

// FetchError records a failed fetch for the generation and cursor it was issued at
type FetchError struct {
	Generation uint64
	Cursor     Cursor
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("contactsync: fetch generation %d at cursor %q: %v", e.Generation, e.Cursor, e.Err)
}

// Unwrap returns the fetcher error
func (e *FetchError) Unwrap() error { return e.Err }

// Options configures an Accumulator
type Options struct {
	// SinglePage turns off incremental loading: a reset fetches one page and the generation
	// is complete after it
	SinglePage bool
	// PageSize is used for every fetch
	PageSize int
	// Context is the parent of every fetch, defaults to context.Background
	Context context.Context
	// Dispatch runs a fetch and defaults to a new goroutine
	Dispatch func(func())
	Log      *logger.Logger
	Metrics  Metrics
}

type request struct {
	gen    uint64
	sig    Signature
	cursor Cursor
}

type listener[T any] struct {
	id int
	fn func(View[T])
}

// Accumulator owns the records loaded so far for the current signature
// All methods are safe for concurrent use; each one runs to completion under one lock and
// fetches run outside it
type Accumulator[T any] struct {
	fetcher  Fetcher[T]
	key      func(T) string
	size     int
	ctx      context.Context
	dispatch func(func())
	log      *logger.Logger
	metrics  Metrics

	mu         sync.Mutex
	singlePage bool
	gen        uint64
	sig        Signature
	items      []T
	seen       map[string]struct{}
	cursor     Cursor
	state      State
	lastErr    error
	truncated  bool

	seq       uint64
	listeners []listener[T]
	nextID    int
	pending   []View[T]
	flushing  bool
}

// New builds an idle Accumulator; nothing is fetched until Reset
// key returns the record identity, records with an empty key are dropped
func New[T any](f Fetcher[T], key func(T) string, opt Options) *Accumulator[T] {
	if f == nil {
		panic("contactsync: nil Fetcher")
	}
	if key == nil {
		panic("contactsync: nil key func")
	}
	a := &Accumulator[T]{
		fetcher:    f,
		key:        key,
		size:       opt.PageSize,
		ctx:        opt.Context,
		dispatch:   opt.Dispatch,
		log:        opt.Log,
		metrics:    opt.Metrics,
		singlePage: opt.SinglePage,
		seen:       map[string]struct{}{},
	}
	if a.size <= 0 {
		a.size = DefaultPageSize
	}
	if a.ctx == nil {
		a.ctx = context.Background()
	}
	if a.dispatch == nil {
		a.dispatch = func(fn func()) { go fn() }
	}
	if a.log == nil {
		a.log = logger.Named("contactsync")
	}
	if a.metrics == nil {
		a.metrics = nopMetrics{}
	}
	return a
}

// Reset mints a new generation for sig, clears the list and issues the first fetch
// A fetch still in flight for an older generation is left to finish and discarded on arrival
func (a *Accumulator[T]) Reset(sig Signature) uint64 {
	a.mu.Lock()
	a.gen++
	a.sig = Signature{Filter: maps.Clone(sig.Filter), Sort: sig.Sort, Search: sig.Search}
	a.items = nil
	a.seen = map[string]struct{}{}
	a.cursor = Start
	a.lastErr = nil
	a.truncated = false
	a.state = StateLoadingFirst
	req := request{gen: a.gen, sig: a.sig, cursor: Start}
	a.publishLocked()
	a.mu.Unlock()

	a.metrics.Reset()
	a.log.Debug().Uint64("generation", req.gen).Str("signature", sig.Key()).Msg("reset")
	a.flush()
	a.issue(req)
	return req.gen
}

// Refresh resets with the signature currently in effect
func (a *Accumulator[T]) Refresh() uint64 {
	a.mu.Lock()
	sig := a.sig
	a.mu.Unlock()
	return a.Reset(sig)
}

// SetSignature resets when sig selects a different view than the current one
// it always resets before the first generation
func (a *Accumulator[T]) SetSignature(sig Signature) (uint64, bool) {
	a.mu.Lock()
	gen, same := a.gen, a.gen != 0 && a.sig.Equal(sig)
	a.mu.Unlock()
	if same {
		return gen, false
	}
	return a.Reset(sig), true
}

// SetIncremental switches between page-by-page and single page loading
// a switch on a started accumulator counts as a signature change and resets it
func (a *Accumulator[T]) SetIncremental(on bool) bool {
	a.mu.Lock()
	if a.singlePage == !on {
		a.mu.Unlock()
		return false
	}
	a.singlePage = !on
	started, sig := a.gen != 0, a.sig
	a.mu.Unlock()
	if started {
		a.Reset(sig)
	}
	return true
}

// LoadNext issues a fetch at the current cursor
// It is a no-op before the first Reset, while a fetch is in flight and once exhausted
func (a *Accumulator[T]) LoadNext() bool {
	a.mu.Lock()
	if a.gen == 0 || a.state.Loading() || a.state == StateExhausted {
		a.mu.Unlock()
		return false
	}
	if a.cursor == Start {
		a.state = StateLoadingFirst
	} else {
		a.state = StateLoadingNext
	}
	req := request{gen: a.gen, sig: a.sig, cursor: a.cursor}
	a.publishLocked()
	a.mu.Unlock()

	a.flush()
	a.issue(req)
	return true
}

// OnPageArrived merges a page fetched under gen
// Pages for any other generation, or arriving while nothing is in flight, are discarded and
// leave the list, cursor and exhaustion untouched
func (a *Accumulator[T]) OnPageArrived(gen uint64, page Page[T]) bool {
	a.mu.Lock()
	if gen != a.gen || !a.state.Loading() {
		cur := a.gen
		a.mu.Unlock()
		a.metrics.StaleDiscarded()
		a.log.Debug().Uint64("generation", gen).Uint64("current", cur).Msg("stale page discarded")
		return false
	}
	added, dropped := a.mergeLocked(page.Records)
	a.cursor = page.Next
	a.lastErr = nil
	switch {
	case page.Last():
		a.state = StateExhausted
	case a.singlePage:
		a.state = StateExhausted
		a.truncated = true
	default:
		a.state = StateIdle
	}
	a.publishLocked()
	a.mu.Unlock()

	a.metrics.PageMerged(added, dropped)
	a.flush()
	return true
}

// OnPageFailed records a fetch failure for gen and clears the in-flight state
// the cursor is kept so the next LoadNext retries the same position
func (a *Accumulator[T]) OnPageFailed(gen uint64, err error) bool {
	a.mu.Lock()
	if gen != a.gen || !a.state.Loading() {
		cur := a.gen
		a.mu.Unlock()
		a.metrics.StaleDiscarded()
		a.log.Debug().Err(err).Uint64("generation", gen).Uint64("current", cur).Msg("stale failure discarded")
		return false
	}
	ferr := &FetchError{Generation: gen, Cursor: a.cursor, Err: err}
	a.lastErr = ferr
	a.state = StateError
	a.publishLocked()
	a.mu.Unlock()

	a.metrics.FetchFailed()
	a.log.Warn().Err(err).Uint64("generation", gen).Str("cursor", string(ferr.Cursor)).Msg("page fetch failed")
	a.flush()
	return true
}

// Status returns the scheduling relevant state
func (a *Accumulator[T]) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		Generation:  a.gen,
		State:       a.state,
		Incremental: !a.singlePage,
		Failed:      a.lastErr != nil,
	}
}

// Snapshot returns the current view
func (a *Accumulator[T]) Snapshot() View[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

// Subscribe registers fn for every published view, in publish order
// fn may call back into the accumulator; views it causes are delivered after fn returns
func (a *Accumulator[T]) Subscribe(fn func(View[T])) (unsubscribe func()) {
	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, listener[T]{id: id, fn: fn})
	a.mu.Unlock()
	return func() {
		a.mu.Lock()
		a.listeners = slices.DeleteFunc(a.listeners, func(l listener[T]) bool { return l.id == id })
		a.mu.Unlock()
	}
}

// issue hands one fetch to the dispatcher, its outcome re-enters through OnPage*
func (a *Accumulator[T]) issue(req request) {
	a.dispatch(func() {
		page, err := a.fetcher.Fetch(a.ctx, req.sig, req.cursor, a.size)
		if err != nil {
			a.OnPageFailed(req.gen, err)
			return
		}
		a.OnPageArrived(req.gen, page)
	})
}

// mergeLocked appends records whose key is new, keeping arrival order
func (a *Accumulator[T]) mergeLocked(recs []T) (added, dropped int) {
	for _, r := range recs {
		k := a.key(r)
		if k == "" {
			dropped++
			continue
		}
		if _, ok := a.seen[k]; ok {
			dropped++
			continue
		}
		a.seen[k] = struct{}{}
		a.items = append(a.items, r)
		added++
	}
	return added, dropped
}

func (a *Accumulator[T]) viewLocked() View[T] {
	return View[T]{
		Seq:        a.seq,
		Generation: a.gen,
		Signature:  a.sig,
		State:      a.state,
		Items:      slices.Clone(a.items),
		Cursor:     a.cursor,
		LastError:  a.lastErr,
		Truncated:  a.truncated,
	}
}

func (a *Accumulator[T]) publishLocked() {
	a.seq++
	if len(a.listeners) > 0 {
		a.pending = append(a.pending, a.viewLocked())
	}
}

// flush delivers pending views; a nested call made from a listener only queues
func (a *Accumulator[T]) flush() {
	a.mu.Lock()
	if a.flushing {
		a.mu.Unlock()
		return
	}
	a.flushing = true
	a.mu.Unlock()
	defer func() {
		a.mu.Lock()
		a.flushing = false
		a.mu.Unlock()
	}()
	for {
		a.mu.Lock()
		batch := a.pending
		a.pending = nil
		ls := slices.Clone(a.listeners)
		a.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, v := range batch {
			for _, l := range ls {
				l.fn(v)
			}
		}
	}
}
