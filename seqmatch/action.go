package seqmatch

// Action is the control-flow effect an extractor hands back to the engine.
// Values are produced once per extractor invocation and consumed immediately
// by the dispatcher; they are never stored.
//
// Construct actions with the package functions (Continue, Extract, Skip, ...).
type Action interface {
	actionName() string
}

type continueAction struct{}
type extractAction[T any] struct{ value T }
type skipAction struct{ n int }
type jumpAction struct{ offset int }
type restartFromAction struct{ pos int }
type restartAction struct{}
type discardAction struct{}
type stopAction struct{}
type removePatternAction struct{ name string }
type addPatternAction[T comparable] struct {
	name    string
	pattern Pattern[T]
}

func (continueAction) actionName() string      { return "Continue" }
func (extractAction[T]) actionName() string    { return "Extract" }
func (skipAction) actionName() string          { return "Skip" }
func (jumpAction) actionName() string          { return "Jump" }
func (restartFromAction) actionName() string   { return "RestartFrom" }
func (restartAction) actionName() string       { return "Restart" }
func (discardAction) actionName() string       { return "DiscardPartialMatch" }
func (stopAction) actionName() string          { return "StopMatching" }
func (removePatternAction) actionName() string { return "RemovePattern" }
func (addPatternAction[T]) actionName() string { return "AddPattern" }

// Continue proceeds with normal advancement.
func Continue() Action { return continueAction{} }

// Extract stops matching for the current call and surfaces v to the caller.
func Extract[T any](v T) Action { return extractAction[T]{value: v} }

// Skip advances the cursor n positions beyond the current one. A target past
// the end of input fails the call with InvalidPositionError.
func Skip(n int) Action { return skipAction{n: n} }

// Jump moves the cursor by a signed offset, saturating at zero on underflow.
// A target past the end of input fails the call with InvalidPositionError.
func Jump(offset int) Action { return jumpAction{offset: offset} }

// RestartFrom forces the cursor to pos and resets pattern progress.
func RestartFrom(pos int) Action { return restartFromAction{pos: pos} }

// Restart resets the incremental cursor to the start of the chain without
// producing a value.
func Restart() Action { return restartAction{} }

// DiscardPartialMatch abandons the current partial match; the engine advances
// one position and keeps scanning.
func DiscardPartialMatch() Action { return discardAction{} }

// StopMatching ends the current run; the cursor jumps to the end of input.
func StopMatching() Action { return stopAction{} }

// AddPattern stages a new table entry, visible from the next scan position.
func AddPattern[T comparable](name string, pattern Pattern[T]) Action {
	return addPatternAction[T]{name: name, pattern: pattern}
}

// RemovePattern drops the named table entry. An absent name fails the call
// with PatternNotFoundError.
func RemovePattern(name string) Action { return removePatternAction{name: name} }
