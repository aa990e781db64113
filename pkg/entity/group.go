package entity

import (
	"sort"

	"github.com/iwvelando/finance-dashboard/pkg/constants"
	"github.com/samber/lo"
)

// Entity is one raw row: a name and its values, one per requested period.
type Entity struct {
	Name   string
	Values []float64
}

// Group is a cluster of raw names judged to be the same real-world entity.
// Name is the display name, Members the raw names folded into it and Values
// the element-wise sum of their values.
type Group struct {
	Name      string    `json:"name" yaml:"name"`
	Members   []string  `json:"members" yaml:"members"`
	Values    []float64 `json:"values" yaml:"values"`
	Confirmed bool      `json:"confirmed,omitempty" yaml:"confirmed,omitempty"`
}

// ConfirmedGroup is a user-approved set of raw names known to be one entity.
type ConfirmedGroup struct {
	Name    string   `json:"name" yaml:"name"`
	Members []string `json:"members" yaml:"members"`
}

// DisplayName returns Name, or the first member when Name is empty.
func (c ConfirmedGroup) DisplayName() string {
	if c.Name != "" || len(c.Members) == 0 {
		return c.Name
	}
	return c.Members[0]
}

// EquivalenceFunc decides whether two raw names refer to the same entity.
type EquivalenceFunc func(a, b string) bool

// GroupEntities clusters entities with eq (Equivalent when nil).
//
// The clustering is greedy and order dependent: groups appear in order of
// their first member, the first member's name is the display name, and
// equivalence carries through bridges (if A matches B and B matches C, all
// three end up together even when A does not match C).
func GroupEntities(entities []Entity, eq EquivalenceFunc) []Group {
	if eq == nil {
		eq = newKeyCache(entities).equivalent
	}

	parent := make([]int, len(entities))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}

	for i := range entities {
		for j := i + 1; j < len(entities); j++ {
			ri, rj := find(i), find(j)
			if ri == rj {
				continue
			}
			if eq(entities[i].Name, entities[j].Name) {
				// The earlier root survives so the first-seen name wins.
				if rj < ri {
					ri, rj = rj, ri
				}
				parent[rj] = ri
			}
		}
	}

	index := make(map[int]int)
	var groups []Group
	for i, e := range entities {
		root := find(i)
		gi, ok := index[root]
		if !ok {
			gi = len(groups)
			index[root] = gi
			groups = append(groups, Group{Name: entities[root].Name})
		}
		groups[gi].add(e)
	}
	return groups
}

// GroupWithConfirmed applies confirmed groups before the heuristic: an entity
// whose normalized name matches a member of a confirmed group joins that
// group; the remaining entities are clustered with GroupEntities. Groups are
// returned in order of their first entity.
func GroupWithConfirmed(entities []Entity, confirmed []ConfirmedGroup, eq EquivalenceFunc) []Group {
	if len(confirmed) == 0 {
		return GroupEntities(entities, eq)
	}

	memberOf := make(map[string]int)
	for ci, cg := range confirmed {
		for _, member := range cg.Members {
			k := Normalize(member)
			if _, taken := memberOf[k]; !taken && k != "" {
				memberOf[k] = ci
			}
		}
	}

	type ordered struct {
		first int
		group Group
	}
	var out []ordered
	confirmedAt := make(map[int]int)
	var rest []Entity
	var restIndex []int

	for i, e := range entities {
		ci, ok := memberOf[Normalize(e.Name)]
		if !ok {
			rest = append(rest, e)
			restIndex = append(restIndex, i)
			continue
		}
		oi, seen := confirmedAt[ci]
		if !seen {
			oi = len(out)
			confirmedAt[ci] = oi
			out = append(out, ordered{first: i, group: Group{Name: confirmed[ci].DisplayName(), Confirmed: true}})
		}
		out[oi].group.add(e)
	}

	heuristic := GroupEntities(rest, eq)
	for _, g := range heuristic {
		// Members are in input order, so the first one locates the group.
		first := 0
		for k, e := range rest {
			if e.Name == g.Members[0] {
				first = restIndex[k]
				break
			}
		}
		out = append(out, ordered{first: first, group: g})
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].first < out[j].first })
	return lo.Map(out, func(o ordered, _ int) Group { return o.group })
}

func (g *Group) add(e Entity) {
	if !lo.Contains(g.Members, e.Name) {
		g.Members = append(g.Members, e.Name)
	}
	g.addValues(e.Values)
}

func (g *Group) addValues(values []float64) {
	if len(values) > len(g.Values) {
		g.Values = append(g.Values, make([]float64, len(values)-len(g.Values))...)
	}
	for i, v := range values {
		g.Values[i] += v
	}
}

// Value returns the group's value at index i, or 0 when absent.
func (g Group) Value(i int) float64 {
	if i < 0 || i >= len(g.Values) {
		return 0
	}
	return g.Values[i]
}

// Rank sorts groups by their value at valueIndex, largest first, keeping
// input order between equal values, and returns at most n groups (all when
// n <= 0). The input slice is not modified.
func Rank(groups []Group, valueIndex, n int) []Group {
	ranked := append([]Group(nil), groups...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Value(valueIndex) > ranked[j].Value(valueIndex)
	})
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}

// SplitTop ranks groups and folds everything past the first n into a single
// "Others" group. others is nil when nothing was folded.
func SplitTop(groups []Group, valueIndex, n int) (top []Group, others *Group) {
	ranked := Rank(groups, valueIndex, 0)
	if n <= 0 || n >= len(ranked) {
		return ranked, nil
	}
	rest := &Group{Name: constants.OthersLabel}
	for _, g := range ranked[n:] {
		rest.Members = append(rest.Members, g.Members...)
		rest.addValues(g.Values)
	}
	return ranked[:n], rest
}

type keyCache struct {
	keys  map[string]string
	words map[string][]string
}

func newKeyCache(entities []Entity) *keyCache {
	c := &keyCache{keys: make(map[string]string), words: make(map[string][]string)}
	for _, e := range entities {
		if _, ok := c.keys[e.Name]; !ok {
			c.keys[e.Name] = Normalize(e.Name)
			c.words[e.Name] = Words(e.Name)
		}
	}
	return c
}

func (c *keyCache) equivalent(a, b string) bool {
	return equivalentKeys(c.keys[a], c.keys[b], c.words[a], c.words[b])
}
