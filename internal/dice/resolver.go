package dice

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/louisbranch/turnforge/internal/mechanics"
)

// Resolution is a settled roll request: the original request plus the rolled
// outcome.
type Resolution struct {
	Request mechanics.DiceRollRequest
	Rolls   []int
	Total   int
}

// Resolver settles the roll requests the executors emit. The enforcement
// pipeline never computes outcomes itself; it hands requests to a Resolver.
type Resolver interface {
	Resolve(ctx context.Context, req mechanics.DiceRollRequest) (Resolution, error)
}

// SeededResolver resolves requests deterministically: the outcome is a pure
// function of the base seed and the request fields, so replaying the same
// turn reproduces the same rolls. It keeps a log of everything it settled.
type SeededResolver struct {
	seed int64

	mu  sync.Mutex
	log []Resolution
}

// NewSeededResolver builds a resolver over the given base seed.
func NewSeededResolver(seed int64) *SeededResolver {
	return &SeededResolver{seed: seed}
}

var _ Resolver = (*SeededResolver)(nil)

// Resolve parses the request notation and rolls it from a seed derived from
// the request identity.
func (r *SeededResolver) Resolve(ctx context.Context, req mechanics.DiceRollRequest) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	result, err := RollNotation(req.Notation, r.requestSeed(req))
	if err != nil {
		return Resolution{}, err
	}

	var rolls []int
	for _, roll := range result.Rolls {
		rolls = append(rolls, roll.Results...)
	}
	resolution := Resolution{Request: req, Rolls: rolls, Total: result.Total}

	r.mu.Lock()
	r.log = append(r.log, resolution)
	r.mu.Unlock()
	return resolution, nil
}

// Log returns a copy of every resolution settled so far, in order.
func (r *SeededResolver) Log() []Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Resolution, len(r.log))
	copy(out, r.log)
	return out
}

func (r *SeededResolver) requestSeed(req mechanics.DiceRollRequest) int64 {
	h := fnv.New64a()
	for _, part := range []string{req.CharacterID, req.RollType, req.Notation, req.Reason} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}
	return r.seed ^ int64(h.Sum64())
}
