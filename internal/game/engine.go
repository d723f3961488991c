package game

import (
	"sync"

	"github.com/talgya/rookery/internal/catalog"
)

// Rand is the randomness source for draws. Satisfied by entropy.Source
// in production and by deterministic stubs in tests.
type Rand interface {
	Float() float64
	Intn(n int) int
}

// Engine implements every game operation. All durable state lives in
// the Store; the only in-memory state is the foraging task table and
// pending study quotes, both bounded by the player count.
type Engine struct {
	store   Store
	clock   *Clock
	rng     Rand
	catalog *catalog.Catalog
	taxo    Taxonomy

	// AllowSelfBrood permits brooding your own egg; debug only.
	AllowSelfBrood bool

	// ForageDone, when set, receives every completed forage draw so the
	// gateway can announce it.
	ForageDone func(ForageOutcome)

	mu      sync.Mutex
	forages map[string]*forageTask
	studies map[string]*pendingStudy
}

// New wires an engine from its collaborators.
func New(store Store, clock *Clock, rng Rand, cat *catalog.Catalog) *Engine {
	return &Engine{
		store:   store,
		clock:   clock,
		rng:     rng,
		catalog: cat,
		forages: make(map[string]*forageTask),
		studies: make(map[string]*pendingStudy),
	}
}

// Catalog exposes the static content for the gateway's rendering.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// Clock exposes the reset boundary for "time until reset" rendering.
func (e *Engine) Clock() *Clock { return e.clock }

// weightedDraw picks an index proportional to weights. Weights must be
// non-negative; a zero total falls back to a uniform pick.
func (e *Engine) weightedDraw(weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return e.rng.Intn(len(weights))
	}
	u := e.rng.Float() * total
	for i, w := range weights {
		u -= w
		if u < 0 {
			return i
		}
	}
	return len(weights) - 1
}
