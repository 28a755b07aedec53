package seqmatch

// probeAt tests whether the element would match at pos, ignoring the
// element's own quantifier. A Repeat probes one full inner match.
func (e *Element[T]) probeAt(data []T, pos int) bool {
	if e.kind == kindRepeat {
		_, ok := matchLength(data, pos, e.inner)
		return ok
	}
	return e.matchItem(data[pos])
}

// matchLength is the pure quantifier matcher: it computes how many items the
// element consumes at pos under its (min, max, greedy) settings, with no
// extractor side effects. Used for negative-assertion probes and by callers
// that only need lengths.
//
// max == 0 with min == 0 is a negative assertion: success, consuming nothing,
// exactly when the element would not match at pos. Past the end of input
// nothing matches, assertions included.
func matchLength[T comparable](data []T, pos int, e *Element[T]) (int, bool) {
	if pos >= len(data) {
		return 0, false
	}
	set := e.Settings()
	if set.MaxRepeat == 0 {
		if set.MinRepeat > 0 {
			return 0, false
		}
		if e.probeAt(data, pos) {
			return 0, false
		}
		return 0, true
	}

	count := 0
	cursor := pos
	if e.kind == kindRepeat {
		for count < set.MaxRepeat {
			consumed, ok := matchLength(data, cursor, e.inner)
			if !ok {
				break
			}
			count++
			cursor += consumed
			if consumed == 0 {
				// zero-width inner match; one iteration is all there is
				break
			}
			if !set.Greedy && count >= set.MinRepeat {
				break
			}
		}
	} else {
		for count < set.MaxRepeat && cursor < len(data) {
			if !e.matchItem(data[cursor]) {
				break
			}
			count++
			cursor++
			if !set.Greedy && count >= set.MinRepeat {
				break
			}
		}
	}
	if count < set.MinRepeat {
		return 0, false
	}
	return cursor - pos, true
}
