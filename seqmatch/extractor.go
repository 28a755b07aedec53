package seqmatch

// MatchState is the immutable snapshot handed to an extractor. It describes
// the match that triggered the hook; the engine never reads it back.
type MatchState[T comparable] struct {
	// CurrentItem is the item that completed the match step.
	CurrentItem T
	// Position is the absolute input index in batch mode, and the number of
	// items processed before this one in incremental mode.
	Position int
	// MatchedItems holds the items consumed by the current element (one item
	// for element-level hooks) or the whole pattern (pattern-level hooks).
	MatchedItems []T
	// PatternName is the table key in batch mode, empty for an element chain.
	PatternName string
	// ElementIndex is the index of the element within its pattern.
	ElementIndex int
	// InputLength is the full input length in batch mode, zero otherwise.
	InputLength int
}

// Extractor is a side-effecting hook invoked when a match state justifies it.
// ctx is the matcher's user context; hooks may mutate it through the pointer.
// Returning an error aborts the in-flight call with ExtractorFailedError.
type Extractor[T comparable, C any] func(state *MatchState[T], ctx *C) (Action, error)

// registry maps extractor ids to hooks. Shared by the batch and incremental
// engines.
type registry[T comparable, C any] struct {
	hooks map[ExtractorID]Extractor[T, C]
}

func newRegistry[T comparable, C any]() registry[T, C] {
	return registry[T, C]{hooks: make(map[ExtractorID]Extractor[T, C])}
}

func (r *registry[T, C]) register(id ExtractorID, fn Extractor[T, C]) {
	r.hooks[id] = fn
}

// dispatch runs the hook bound to id under failure isolation: a panic inside
// the hook is caught at this boundary and converted to ExtractorPanicError,
// a returned error to ExtractorFailedError. A reference to an unregistered id
// is itself an extractor failure.
func (r *registry[T, C]) dispatch(id ExtractorID, state *MatchState[T], ctx *C) (action Action, err error) {
	fn, ok := r.hooks[id]
	if !ok {
		return nil, &ExtractorFailedError{ID: id, Err: errNotRegistered}
	}
	defer func() {
		if rec := recover(); rec != nil {
			action = nil
			err = &ExtractorPanicError{ID: id, Value: rec}
		}
	}()
	act, ferr := fn(state, ctx)
	if ferr != nil {
		return nil, &ExtractorFailedError{ID: id, Err: ferr}
	}
	if act == nil {
		act = Continue()
	}
	return act, nil
}

var errNotRegistered = &notRegisteredError{}

type notRegisteredError struct{}

func (*notRegisteredError) Error() string { return "extractor id not registered" }
