// Package instance implements the instance store (spec component C2): the
// set of chunks an agent has accumulated, keyed by (attribute tuple,
// utility) identity, with per-chunk temporal bookkeeping. It is grounded
// on the teacher's map-backed MemoryStore (internal/storage/memory.go in
// the retrieval pack), generalized from a genome/population store keyed by
// opaque IDs to a decision-chunk store keyed by attribute+utility identity.
package instance

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Attr is one (name, value) pair of an attribute tuple.
type Attr struct {
	Name  string
	Value any
}

// Tuple is an ordered attribute tuple, in declared-schema order.
type Tuple []Attr

// Get returns the value for name, if present.
func (t Tuple) Get(name string) (any, bool) {
	for _, a := range t {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Chunk is a stored (attribute tuple, utility) record together with the
// reference times at which it was (re)observed.
type Chunk struct {
	ID      int64
	Attrs   Tuple
	Utility float64

	Created int64

	// References holds every tick at which this chunk was (re)observed,
	// in non-decreasing order. Empty (nil) once Optimized is true.
	References []int64

	// Count and Optimized implement the optimized-learning representation:
	// only the creation time and a reference count are retained.
	Count     int64
	Optimized bool

	// Prepopulated marks a chunk created before the agent's first live
	// choose/respond event; PrepopulatedRefs freezes the reference times
	// contributed while that remained true, for Clear(preservePrepopulated).
	Prepopulated    bool
	PrepopulatedRefs []int64
}

// RefCount returns the number of times this chunk has been observed.
func (c *Chunk) RefCount() int64 {
	if c.Optimized {
		return c.Count
	}
	return int64(len(c.References))
}

// Key returns the canonical identity string for (attrs, utility). Two
// chunks collide iff their Key()s are equal.
func Key(attrs Tuple, utility float64) string {
	var b strings.Builder
	for _, a := range attrs {
		fmt.Fprintf(&b, "%s=%#v;", a.Name, a.Value)
	}
	fmt.Fprintf(&b, "_utility=%v", utility)
	return b.String()
}

// Store holds every live chunk for one agent. It is safe for concurrent
// use, though the core contract (spec §5) expects single-threaded use per
// agent; the lock only protects against accidental concurrent access.
type Store struct {
	mu     sync.RWMutex
	byKey  map[string]*Chunk
	order  []string
	nextID int64
}

// NewStore returns an empty instance store.
func NewStore() *Store {
	return &Store{byKey: make(map[string]*Chunk)}
}

// Insert records an occurrence of (attrs, utility) at tick t. If a live
// chunk with identical (attrs, utility) exists, t is appended to its
// reference history (or its count incremented, under optimized learning);
// otherwise a new chunk is created. prepopulated tags the occurrence as
// having happened before the agent's first live event.
func (s *Store) Insert(attrs Tuple, utility float64, t int64, optimized, prepopulated bool) *Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(attrs, utility)
	if c, ok := s.byKey[key]; ok {
		s.recordOccurrence(c, t, prepopulated)
		return c
	}

	s.nextID++
	c := &Chunk{
		ID:        s.nextID,
		Attrs:     cloneTuple(attrs),
		Utility:   utility,
		Created:   t,
		Optimized: optimized,
	}
	if optimized {
		c.Count = 1
	} else {
		c.References = []int64{t}
	}
	if prepopulated {
		c.Prepopulated = true
		c.PrepopulatedRefs = []int64{t}
	}
	s.byKey[key] = c
	s.order = append(s.order, key)
	return c
}

func (s *Store) recordOccurrence(c *Chunk, t int64, prepopulated bool) {
	if c.Optimized {
		c.Count++
	} else {
		c.References = append(c.References, t)
	}
	if prepopulated && c.Prepopulated {
		c.PrepopulatedRefs = append(c.PrepopulatedRefs, t)
	} else if !prepopulated {
		// A live occurrence on a previously-prepopulated chunk keeps the
		// chunk eligible for normal activation but it is no longer purely
		// prepopulated data; PrepopulatedRefs is left untouched so
		// Clear(preservePrepopulated) can still roll back to it.
		_ = prepopulated
	}
}

// RemoveReference deletes a single occurrence of (attrs, utility) at tick
// t. If that was the chunk's last reference, the chunk itself is removed.
// It is used to delete a DelayedResponse placeholder once the real outcome
// has been recorded (spec C6).
func (s *Store) RemoveReference(attrs Tuple, utility float64, t int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := Key(attrs, utility)
	c, ok := s.byKey[key]
	if !ok {
		return false
	}

	if c.Optimized {
		if c.Count <= 1 {
			s.delete(key)
			return true
		}
		c.Count--
		return true
	}

	idx := -1
	for i, ref := range c.References {
		if ref == t {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	c.References = append(c.References[:idx], c.References[idx+1:]...)
	if len(c.References) == 0 {
		s.delete(key)
	}
	return true
}

func (s *Store) delete(key string) {
	delete(s.byKey, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Lookup returns the live chunk for (attrs, utility), if any.
func (s *Store) Lookup(attrs Tuple, utility float64) (*Chunk, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byKey[Key(attrs, utility)]
	return c, ok
}

// Enumerate returns every live chunk in insertion order, for deterministic
// tracing under a fixed RNG seed (spec §6 compatibility surface).
func (s *Store) Enumerate() []*Chunk {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Chunk, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Len returns the number of live chunks.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Clear drops every chunk. With preservePrepopulated, chunks inserted
// before the agent's first live event are kept, their reference lists (or
// counts) rolled back to exactly their recorded prepopulation occurrences.
func (s *Store) Clear(preservePrepopulated bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !preservePrepopulated {
		s.byKey = make(map[string]*Chunk)
		s.order = nil
		return
	}

	keptOrder := make([]string, 0, len(s.order))
	kept := make(map[string]*Chunk, len(s.order))
	for _, key := range s.order {
		c := s.byKey[key]
		if !c.Prepopulated || len(c.PrepopulatedRefs) == 0 {
			continue
		}
		if c.Optimized {
			c.Count = int64(len(c.PrepopulatedRefs))
		} else {
			c.References = append([]int64(nil), c.PrepopulatedRefs...)
		}
		kept[key] = c
		keptOrder = append(keptOrder, key)
	}
	s.byKey = kept
	s.order = keptOrder
}

func cloneTuple(t Tuple) Tuple {
	out := make(Tuple, len(t))
	copy(out, t)
	return out
}

// Snapshot is a read-only view of one chunk, safe to hand to callers.
type Snapshot struct {
	ID           int64
	Attrs        Tuple
	Utility      float64
	Created      int64
	References   []int64
	Count        int64
	Optimized    bool
	Prepopulated bool
}

// Snapshots returns Enumerate() converted to caller-safe Snapshot values.
func (s *Store) Snapshots() []Snapshot {
	chunks := s.Enumerate()
	out := make([]Snapshot, 0, len(chunks))
	for _, c := range chunks {
		out = append(out, Snapshot{
			ID:           c.ID,
			Attrs:        cloneTuple(c.Attrs),
			Utility:      c.Utility,
			Created:      c.Created,
			References:   append([]int64(nil), c.References...),
			Count:        c.Count,
			Optimized:    c.Optimized,
			Prepopulated: c.Prepopulated,
		})
	}
	return out
}

// SortedNames returns a stable sort of attribute names, used by callers
// that need deterministic iteration order independent of map iteration.
func SortedNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}
