package contactsync

import "context"

// Cursor is an opaque position where the next fetch resumes
type Cursor string

// Start is the initial cursor of every generation
const Start Cursor = ""

// Page is one fetch result
// An empty Next means there are no further pages
type Page[T any] struct {
	Records []T
	Next    Cursor
}

// Last reports whether the page ends the result set
func (p Page[T]) Last() bool { return p.Next == "" }

// Fetcher loads one page for a signature
// implementations own timeouts; the accumulator never retries
type Fetcher[T any] interface {
	Fetch(ctx context.Context, sig Signature, cursor Cursor, size int) (Page[T], error)
}

// FetcherFunc lets a plain function act as a Fetcher
type FetcherFunc[T any] func(ctx context.Context, sig Signature, cursor Cursor, size int) (Page[T], error)

// Fetch calls f
func (f FetcherFunc[T]) Fetch(ctx context.Context, sig Signature, cursor Cursor, size int) (Page[T], error) {
	return f(ctx, sig, cursor, size)
}
