package words

import (
	"errors"
	"math/rand"
)

// ErrEmptyBank is returned when there are no words to pick from at all.
var ErrEmptyBank = errors.New("empty word bank")

// Selector draws secret words without premature repeats. It is a pure
// function over (bank, used); the used pool itself lives in the replicated
// usedWords slot so every client agrees on what has been shown.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector with the given random source. Production
// callers seed from the wall clock; tests inject a fixed seed.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Pick samples uniformly from bank minus used and returns the word plus
// the updated used pool. When the bank is exhausted the pool resets to
// empty and the whole bank becomes available again; a repeat straight
// across the reset boundary is possible and accepted.
func (s *Selector) Pick(bank, used []string) (string, []string, error) {
	if len(bank) == 0 {
		return "", used, ErrEmptyBank
	}

	available := subtract(bank, used)
	if len(available) == 0 {
		used = nil
		available = bank
	}

	word := available[s.rng.Intn(len(available))]
	return word, append(used, word), nil
}

func subtract(bank, used []string) []string {
	seen := make(map[string]struct{}, len(used))
	for _, w := range used {
		seen[w] = struct{}{}
	}
	var out []string
	for _, w := range bank {
		if _, ok := seen[w]; !ok {
			out = append(out, w)
		}
	}
	return out
}
