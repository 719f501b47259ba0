package contactsync

// State is the accumulator lifecycle state for the current generation
type State uint8

const (
	// StateIdle is ready for LoadNext
	StateIdle State = iota
	// StateLoadingFirst has the first page of a generation in flight
	StateLoadingFirst
	// StateLoadingNext has a follow-up page in flight
	StateLoadingNext
	// StateExhausted has seen the last page
	StateExhausted
	// StateError saw the last fetch fail; behaves like idle
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoadingFirst:
		return "loading_first_page"
	case StateLoadingNext:
		return "loading_next_page"
	case StateExhausted:
		return "exhausted"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Loading reports whether a fetch is in flight
func (s State) Loading() bool { return s == StateLoadingFirst || s == StateLoadingNext }

// Status is the part of the view the scroll trigger needs
type Status struct {
	Generation  uint64
	State       State
	Incremental bool
	Failed      bool
}

// View is a read only snapshot for a presentation layer
// Items is a copy and can be kept by the caller
type View[T any] struct {
	// Seq increases with every published change, across generations
	Seq        uint64
	Generation uint64
	Signature  Signature
	State      State
	Items      []T
	Cursor     Cursor
	LastError  error
	// Truncated is set in single page mode when the server had more records than one page
	Truncated bool
}

// Loading reports whether a fetch is in flight
func (v View[T]) Loading() bool { return v.State.Loading() }

// Exhausted reports whether no further pages exist for the generation
func (v View[T]) Exhausted() bool { return v.State == StateExhausted }

// ShowRetry reports whether a retry control should be offered
func (v View[T]) ShowRetry() bool { return v.LastError != nil && !v.Loading() }

// ShowEnd reports whether an end-of-list notice should be shown
func (v View[T]) ShowEnd() bool { return v.Exhausted() && len(v.Items) > 0 }
