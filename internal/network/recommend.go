package network

import (
	"cmp"
	"slices"
)

// Suggestion is a candidate connection and the number of direct neighbors
// it shares with the member the suggestion is for.
type Suggestion struct {
	ID          string `json:"id"`
	SharedCount int    `json:"shared_count"`
}

// RecommendationEngine computes mutual connections and friend-of-friend
// suggestions.
type RecommendationEngine struct {
	store *MemberStore
	graph *ConnectionGraph
}

// NewRecommendationEngine creates an engine reading store and graph.
func NewRecommendationEngine(store *MemberStore, graph *ConnectionGraph) *RecommendationEngine {
	return &RecommendationEngine{store: store, graph: graph}
}

// MutualConnections returns the members connected to both a and b, in a's
// adjacency order. As a set the result is symmetric in a and b.
func (r *RecommendationEngine) MutualConnections(a, b string) []string {
	if !r.store.Exists(a) || !r.store.Exists(b) {
		return nil
	}
	other := make(map[string]struct{}, r.graph.Degree(b))
	for _, n := range r.graph.neighbors(b) {
		other[n] = struct{}{}
	}

	var mutual []string
	for _, n := range r.graph.neighbors(a) {
		if _, ok := other[n]; ok {
			mutual = append(mutual, n)
		}
	}
	return mutual
}

// Suggest scores every member two hops from id that is not id itself and not
// already a direct neighbor. The score is the number of distinct neighbors of
// id through which the candidate is reached. Results are ordered by score,
// highest first, then by id.
func (r *RecommendationEngine) Suggest(id string) []Suggestion {
	if !r.store.Exists(id) {
		return nil
	}
	direct := make(map[string]struct{}, r.graph.Degree(id))
	for _, n := range r.graph.neighbors(id) {
		direct[n] = struct{}{}
	}

	counts := make(map[string]int)
	for _, n := range r.graph.neighbors(id) {
		for _, m := range r.graph.neighbors(n) {
			if m == id {
				continue
			}
			if _, ok := direct[m]; ok {
				continue
			}
			counts[m]++
		}
	}

	out := make([]Suggestion, 0, len(counts))
	for candidate, n := range counts {
		out = append(out, Suggestion{ID: candidate, SharedCount: n})
	}
	slices.SortFunc(out, func(x, y Suggestion) int {
		if c := cmp.Compare(y.SharedCount, x.SharedCount); c != 0 {
			return c
		}
		return cmp.Compare(x.ID, y.ID)
	})
	return out
}

// MutualFiltered keeps the mutual connections of a and b whose value for key
// equals a's own value. The filter is anchored to a only: b's value for key
// plays no part. Nothing matches when a has key unset, and candidates with key
// unset never match.
func (r *RecommendationEngine) MutualFiltered(a, b string, key AttributeKey) []string {
	anchor, ok := r.store.members[a]
	if !ok {
		return nil
	}
	want, ok := anchor.Attributes[key]
	if !ok {
		return nil
	}

	var out []string
	for _, id := range r.MutualConnections(a, b) {
		got, ok := r.store.members[id].Attributes[key]
		if ok && got == want {
			out = append(out, id)
		}
	}
	return out
}

// ListByAttribute returns, in registration order, the members whose key is
// set to value.
func (r *RecommendationEngine) ListByAttribute(key AttributeKey, value string) []string {
	var out []string
	for id := range r.store.AllIDs() {
		got, ok := r.store.members[id].Attributes[key]
		if ok && got == value {
			out = append(out, id)
		}
	}
	return out
}
