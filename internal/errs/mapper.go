package errs

import (
	"errors"
)

// Exposable is an outward-facing error representation (an API error body,
// for example) that knows its own fallback.
type Exposable[T any] interface {
	DefaultError() T
}

// Mapping binds a chain of internal sentinels to the exposed value returned
// when all of them appear in the examined error.
type Mapping[T Exposable[T]] struct {
	Chain   []error
	Exposed T
}

// Mapper translates internal error chains into exposed values. Priority
// mappings win outright; otherwise the mapping matching the most sentinels
// in the chain is chosen, and an unmatched error falls back to the default.
type Mapper[T Exposable[T]] struct {
	mappings []Mapping[T]
	priority []Mapping[T]
}

func NewMapper[T Exposable[T]](mappings, priority []Mapping[T]) Mapper[T] {
	return Mapper[T]{mappings: mappings, priority: priority}
}

func (m Mapper[T]) Transform(err error) T {
	for _, p := range m.priority {
		if countMatches(err, p.Chain) > 0 {
			return p.Exposed
		}
	}

	var (
		best      T
		bestCount int
	)

	for _, candidate := range m.mappings {
		count := countMatches(err, candidate.Chain)
		if count < len(candidate.Chain) {
			continue
		}

		if count > bestCount {
			best = candidate.Exposed
			bestCount = count
		}
	}

	if bestCount == 0 {
		var zero T
		return zero.DefaultError()
	}

	return best
}

func countMatches(err error, sentinels []error) int {
	matches := 0

	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			matches++
		}
	}

	return matches
}
