// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

import "sort"

// ExecuteWithOverlaps walks ops in LinOrder; for every REMOVE whose cost is
// nonzero, it greedily "executes" — records into the histogram and marks
// resolved — the best-ranked overlapping REMOVE first (lowest cost first,
// ties broken by the earlier matching INSERT start), before finally
// recording the original REMOVE's own residual cost. This mirrors an
// execution that clears the cheapest nearby conflicts before accounting for
// the one actually being considered.
//
// Grounded on spec.md §4.5's execution driver, itself grounded on
// original_source's fifoExecuterLowerBound.cpp greedy re-ranking loop.
func ExecuteWithOverlaps(ops []*Operation, overlaps OverlapIndex, cost CostFunc) *Histogram {
	h := NewHistogram()
	executed := make(map[*Operation]bool, len(ops))

	sorted := make([]*Operation, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].LinOrder < sorted[j].LinOrder })

	for _, op := range sorted {
		if op.Type != Remove || executed[op] {
			continue
		}
		executeRemove(op, overlaps, cost, executed, h)
	}
	return h
}

func executeRemove(op *Operation, overlaps OverlapIndex, cost CostFunc, executed map[*Operation]bool, h *Histogram) {
	maxIterations := len(overlaps.Overlaps(op)) + 1
	for iter := 0; iter < maxIterations; iter++ {
		if executed[op] {
			return
		}
		errorDistance := cost(op, overlaps)
		if errorDistance <= 0 {
			executed[op] = true
			h.Record(errorDistance)
			return
		}

		var candidates []*Operation
		for _, other := range overlaps.Overlaps(op) {
			if other.Type == Remove && !executed[other] && other != op {
				candidates = append(candidates, other)
			}
		}
		if len(candidates) == 0 {
			executed[op] = true
			h.Record(errorDistance)
			return
		}

		sort.SliceStable(candidates, func(i, j int) bool {
			ci, cj := cost(candidates[i], overlaps), cost(candidates[j], overlaps)
			if ci != cj {
				return ci < cj
			}
			return matchStart(candidates[i]) < matchStart(candidates[j])
		})

		best := candidates[0]
		executed[best] = true
		h.Record(cost(best, overlaps))
	}

	if !executed[op] {
		executed[op] = true
		h.Record(cost(op, overlaps))
	}
}
