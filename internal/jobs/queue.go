package jobs

import (
	"sort"

	"github.com/townforge/townforge/internal/worldgen"
)

// Drain orders a batch of pending jobs by spawn proximity before the
// processor works through them (spec.md §4.3). It is a plain sort rather
// than a container/heap: the processor re-reads the whole queue list on
// every tick rather than holding a long-lived in-memory heap,
// so there is never more than one poll's worth of jobs to order at a time.
func Drain(envelopes []Envelope, geo worldgen.Geometry) []Envelope {
	ordered := make([]Envelope, len(envelopes))
	copy(ordered, envelopes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return Priority(ordered[i], geo) < Priority(ordered[j], geo)
	})
	return ordered
}
