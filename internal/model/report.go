package model

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// CategoryGroups maps a category label to its items in first-seen order.
type CategoryGroups = orderedmap.OrderedMap[string, []AdviceItem]

// PhaseReport groups advice items by canonical phase, then by category label.
type PhaseReport struct {
	phases map[Phase]*CategoryGroups

	// Dropped counts items whose phase tag was not a canonical phase.
	Dropped int
}

// NewPhaseReport returns an empty report with every canonical phase present.
func NewPhaseReport() *PhaseReport {
	r := &PhaseReport{phases: make(map[Phase]*CategoryGroups, len(CanonicalPhases))}
	for _, p := range CanonicalPhases {
		r.phases[p] = orderedmap.New[string, []AdviceItem]()
	}
	return r
}

// Add places item under its phase and category. Items with an unknown phase
// are not added; Add returns false for them.
func (r *PhaseReport) Add(item AdviceItem) bool {
	phase := Phase(item.Phase)
	if !phase.Known() {
		r.Dropped++
		return false
	}
	groups := r.phases[phase]
	existing, _ := groups.Get(item.CategoryLabel)
	groups.Set(item.CategoryLabel, append(existing, item))
	return true
}

// Categories returns the category groups for a phase, or nil for unknown phases.
func (r *PhaseReport) Categories(p Phase) *CategoryGroups {
	return r.phases[p]
}

// Items returns the items of a phase in category-group order.
func (r *PhaseReport) Items(p Phase) []AdviceItem {
	groups := r.phases[p]
	if groups == nil {
		return nil
	}
	var out []AdviceItem
	for pair := groups.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value...)
	}
	return out
}

// Len returns the number of grouped items.
func (r *PhaseReport) Len() int {
	n := 0
	for _, p := range CanonicalPhases {
		n += len(r.Items(p))
	}
	return n
}

// Grouped returns phase -> category -> items as ordered maps, ready for JSON
// encoding in canonical phase order.
func (r *PhaseReport) Grouped() *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, []any]] {
	out := orderedmap.New[string, *orderedmap.OrderedMap[string, []any]]()
	for _, p := range CanonicalPhases {
		cats := orderedmap.New[string, []any]()
		for pair := r.phases[p].Oldest(); pair != nil; pair = pair.Next() {
			cats.Set(pair.Key, views(pair.Value))
		}
		out.Set(string(p), cats)
	}
	return out
}

// ByPhase returns phase -> items with no category sub-grouping.
func (r *PhaseReport) ByPhase() *orderedmap.OrderedMap[string, []any] {
	out := orderedmap.New[string, []any]()
	for _, p := range CanonicalPhases {
		out.Set(string(p), views(r.Items(p)))
	}
	return out
}

func views(items []AdviceItem) []any {
	out := make([]any, len(items))
	for i, it := range items {
		out[i] = it.View()
	}
	return out
}
