// Package resolver provides the tag-based module resolver: best-match
// lookup from a query tag to module ids, with optional per-module
// regulators and a bounded, memoized match cache.
//
// The match cache reuses Akita's cache-directory machinery, otherwise used
// for an L1/L2 memory hierarchy, as a generic bounded LRU keyed by tag
// hash: genetic-programming tags are an effectively unbounded
// combinatorial space, so an unbounded map would leak memory across a long
// evolutionary run.
package resolver

import (
	"math"
	"sort"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/signalgp/module"
	"github.com/sarchlab/signalgp/tag"
)

// DefaultCacheCapacity is the number of distinct (tag, n) match results kept
// memoized before the LRU victim finder starts evicting.
const DefaultCacheCapacity = 256

// cacheAssociativity is arbitrary; it only shapes how the directory spreads
// entries across sets, not correctness.
const cacheAssociativity = 4

// Regulator is a per-module numeric bias with a decay counter. Value starts
// at 1.0 (neutral); Counter at 0 means inactive.
type Regulator struct {
	Value   float64
	Counter uint32
}

// Resolver holds the compiled module list, per-module regulators, and the
// bounded match-result cache. It must be invalidated whenever the owning
// program is recompiled or a regulator changes the ranking.
type Resolver struct {
	modules    []module.Module
	regulators map[uint32]*Regulator
	cache      *matchCache
}

// New builds a Resolver over modules with a cache of the given capacity (0
// uses DefaultCacheCapacity).
func New(modules []module.Module, cacheCapacity int) *Resolver {
	if cacheCapacity <= 0 {
		cacheCapacity = DefaultCacheCapacity
	}
	return &Resolver{
		modules:    modules,
		regulators: map[uint32]*Regulator{},
		cache:      newMatchCache(cacheCapacity),
	}
}

// SetModules replaces the module list (after a program recompile) and
// invalidates the match cache and any regulator on a now-nonexistent
// module. Coherence with §3's invariant: "any program mutation invalidates
// the cache."
func (r *Resolver) SetModules(modules []module.Module) {
	r.modules = modules
	r.cache.invalidate()
	valid := make(map[uint32]bool, len(modules))
	for _, m := range modules {
		valid[m.ID] = true
	}
	for id := range r.regulators {
		if !valid[id] {
			delete(r.regulators, id)
		}
	}
}

// Modules returns the current module list (read-only; callers must not
// mutate it).
func (r *Resolver) Modules() []module.Module {
	return r.modules
}

type match struct {
	id    uint32
	score float64
}

// FindModuleMatches returns up to n module ids ranked by descending biased
// match score. An empty result is legal.
func (r *Resolver) FindModuleMatches(t tag.Tag, n int) []uint32 {
	if n <= 0 || len(r.modules) == 0 {
		return nil
	}
	key := cacheKey(t, n)
	if cached, ok := r.cache.lookup(key); ok {
		return cached
	}

	matches := make([]match, 0, len(r.modules))
	for _, m := range r.modules {
		// exp maps similarity (never positive for BitTag) onto a positive,
		// order-preserving quantity, so a regulator below 1.0 lowers a
		// module's score and one above 1.0 raises it.
		score := math.Exp(t.Similarity(m.Tag)) * r.regulatorBias(m.ID)
		matches = append(matches, match{id: m.ID, score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].id < matches[j].id
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	ids := make([]uint32, len(matches))
	for i, m := range matches {
		ids[i] = m.id
	}

	r.cache.insert(key, ids)
	return ids
}

func (r *Resolver) regulatorBias(moduleID uint32) float64 {
	reg, ok := r.regulators[moduleID]
	if !ok {
		return 1.0
	}
	return reg.Value
}

// SetRegulator replaces moduleID's regulator value outright and resets its
// decay counter, invalidating the match cache (the ranking may have
// changed).
func (r *Resolver) SetRegulator(moduleID uint32, value float64, decay uint32) {
	r.regulators[moduleID] = &Regulator{Value: value, Counter: decay}
	r.cache.invalidate()
}

// AdjustRegulator blends moduleID's regulator toward target by budge ([0,1])
// — new = target*budge + old*(1-budge) — and resets its decay counter.
func (r *Resolver) AdjustRegulator(moduleID uint32, target, budge float64, decay uint32) {
	old := r.regulatorBias(moduleID)
	next := target*budge + old*(1-budge)
	r.regulators[moduleID] = &Regulator{Value: next, Counter: decay}
	r.cache.invalidate()
}

// SenseRegulator returns moduleID's current regulator value without side
// effects, 1.0 if it has none.
func (r *Resolver) SenseRegulator(moduleID uint32) float64 {
	return r.regulatorBias(moduleID)
}

// Tick decrements every active regulator's decay counter by one tick,
// reverting to 1.0 at zero. Invalidates the cache only if a regulator
// actually reverted, since that is the only case the ranking can change.
func (r *Resolver) Tick() {
	reverted := false
	for _, reg := range r.regulators {
		if reg.Counter == 0 {
			continue
		}
		reg.Counter--
		if reg.Counter == 0 {
			reg.Value = 1.0
			reverted = true
		}
	}
	if reverted {
		r.cache.invalidate()
	}
}

func cacheKey(t tag.Tag, n int) uint64 {
	// Fold n into the hash so distinct top-k widths don't collide; n is
	// small so a cheap multiplicative mix suffices.
	return t.Hash()*1000003 + uint64(n)
}

// matchCache is a bounded LRU of match results keyed by a 64-bit hash,
// backed by an Akita cache directory the same way an L1/L2 data cache is:
// the directory owns set/way/LRU bookkeeping, a parallel slice owns the
// payload each block's slot corresponds to.
type matchCache struct {
	directory *akitacache.DirectoryImpl
	results   [][]uint32
}

func newMatchCache(capacity int) *matchCache {
	numSets := capacity / cacheAssociativity
	if numSets < 1 {
		numSets = 1
	}
	total := numSets * cacheAssociativity
	return &matchCache{
		directory: akitacache.NewDirectory(numSets, cacheAssociativity, 1, akitacache.NewLRUVictimFinder()),
		results:   make([][]uint32, total),
	}
}

func (c *matchCache) blockIndex(b *akitacache.Block) int {
	return b.SetID*cacheAssociativity + b.WayID
}

func (c *matchCache) lookup(key uint64) ([]uint32, bool) {
	block := c.directory.Lookup(0, key)
	if block == nil || !block.IsValid || block.Tag != key {
		return nil, false
	}
	c.directory.Visit(block)
	return c.results[c.blockIndex(block)], true
}

func (c *matchCache) insert(key uint64, ids []uint32) {
	victim := c.directory.FindVictim(key)
	if victim == nil {
		return
	}
	victim.Tag = key
	victim.IsValid = true
	c.results[c.blockIndex(victim)] = ids
	c.directory.Visit(victim)
}

func (c *matchCache) invalidate() {
	c.directory.Reset()
	for i := range c.results {
		c.results[i] = nil
	}
}
