package ibl

import "github.com/rogerlew/goibl/internal/instance"

// Attr is one (name, value) pair of an attribute tuple, exposed at the
// package boundary so callers never import internal/instance directly.
type Attr struct {
	Name  string
	Value any
}

// Instance is a read-only snapshot of one chunk, as returned by
// Agent.Instances (spec §4.5 "instances()").
type Instance struct {
	ID           int64
	Attrs        []Attr
	Utility      float64
	Created      int64
	References   []int64
	Count        int64
	Optimized    bool
	Prepopulated bool
}

func attrsFromTuple(t instance.Tuple) []Attr {
	out := make([]Attr, len(t))
	for i, a := range t {
		out[i] = Attr{Name: a.Name, Value: a.Value}
	}
	return out
}

func instanceFromSnapshot(s instance.Snapshot) Instance {
	return Instance{
		ID:           s.ID,
		Attrs:        attrsFromTuple(s.Attrs),
		Utility:      s.Utility,
		Created:      s.Created,
		References:   s.References,
		Count:        s.Count,
		Optimized:    s.Optimized,
		Prepopulated: s.Prepopulated,
	}
}
