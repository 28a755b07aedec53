package seqmatch

// PatternSettings configures pattern-level behavior: table ordering and the
// hook that runs once a whole pattern completes.
type PatternSettings struct {
	// Priority orders patterns in the table; lower value is tried first,
	// ties broken by registration order.
	Priority uint32
	// Extractor binds a pattern-level hook, invoked after all elements match.
	Extractor ExtractorID
}

// Pattern is an ordered sequence of elements; element order is match order.
// An empty pattern never matches and is rejected at registration.
type Pattern[T comparable] struct {
	Elements []Element[T]
	Settings *PatternSettings
}

// NewPattern builds a pattern from elements with default settings.
func NewPattern[T comparable](elements ...Element[T]) Pattern[T] {
	return Pattern[T]{Elements: elements}
}

// NewPatternWithSettings builds a pattern carrying pattern-level settings.
func NewPatternWithSettings[T comparable](elements []Element[T], settings PatternSettings) Pattern[T] {
	return Pattern[T]{Elements: elements, Settings: &settings}
}

func (p *Pattern[T]) priority() uint32 {
	if p.Settings == nil {
		return 0
	}
	return p.Settings.Priority
}

func (p *Pattern[T]) extractor() ExtractorID {
	if p.Settings == nil {
		return NoExtractor
	}
	return p.Settings.Extractor
}

// Validate checks the pattern's structure without registering it, so loaders
// can reject bad definitions before they reach a matcher table.
func (p *Pattern[T]) Validate(name string) error {
	return p.validate(name)
}

func (p *Pattern[T]) validate(name string) error {
	if len(p.Elements) == 0 {
		return &InvalidPatternError{Name: name, Reason: "pattern has no elements"}
	}
	for i := range p.Elements {
		if err := p.Elements[i].validate(); err != nil {
			if ipe, ok := err.(*InvalidPatternError); ok && ipe.Name == "" {
				ipe.Name = name
			}
			return err
		}
	}
	return nil
}
