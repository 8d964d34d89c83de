// Package draw selects the two keywords for a draw.
//
// SELECTION:
// Pick runs the first two steps of a Fisher–Yates shuffle over the pool's
// indices. Step one chooses A uniformly from n records, step two chooses B
// uniformly from the remaining n-1. Every ordered pair of distinct records
// therefore has probability 1/(n(n-1)), so every unordered pair is equally
// likely and each arrangement (A,B) vs (B,A) comes up half the time.
//
// Sorting by a random comparator is not used: it is not a uniform permutation.
package draw

import (
	"math/rand/v2"
	"sync"

	"github.com/sakif/keyword-synergy/internal/apperror"
	"github.com/sakif/keyword-synergy/internal/model"
)

// MinPoolSize is the smallest pool a draw can be made from.
const MinPoolSize = 2

// Picker draws keyword pairs. It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand // nil means the package-level generator
}

// NewPicker returns a Picker backed by src. A nil src uses math/rand/v2's
// auto-seeded global generator; tests pass a seeded source for repeatability.
func NewPicker(src rand.Source) *Picker {
	p := &Picker{}
	if src != nil {
		p.rng = rand.New(src)
	}
	return p
}

// Pick returns two distinct records from pool.
// It fails with apperror.ErrInsufficientPool when len(pool) < 2.
// pool is not modified.
func (p *Picker) Pick(pool []model.Keyword) (a, b model.Keyword, err error) {
	n := len(pool)
	if n < MinPoolSize {
		return model.Keyword{}, model.Keyword{}, apperror.InsufficientPool(n)
	}

	i := p.intN(n)
	// Choose among the other n-1 indices, skipping i.
	j := p.intN(n - 1)
	if j >= i {
		j++
	}

	return pool[i], pool[j], nil
}

func (p *Picker) intN(n int) int {
	if p.rng == nil {
		return rand.IntN(n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}
