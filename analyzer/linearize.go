// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

import "sort"

// Linearizer assigns a LinOrder to every operation in ops (mutating them in
// place, since Operation is the shared analysis record spec.md's data model
// describes) and returns a copy of ops in that order.
type Linearizer func(ops []*Operation) []*Operation

func stampOrder(sorted []*Operation) []*Operation {
	for i, op := range sorted {
		op.LinOrder = i
	}
	return sorted
}

// ByInvocation linearizes by invocation (start) time.
func ByInvocation(ops []*Operation) []*Operation {
	out := make([]*Operation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return stampOrder(out)
}

// ByResponse linearizes by response (end) time. This is the plain "sort by
// response end time" resolution of spec.md §9's Open Question (i) about the
// original's operator()() misuse in linearizer_response.cpp: no operator
// trickery, just a sort key.
func ByResponse(ops []*Operation) []*Operation {
	out := make([]*Operation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].End < out[j].End })
	return stampOrder(out)
}

// ByLinPoint linearizes by the logged linearization-point timestamp.
func ByLinPoint(ops []*Operation) []*Operation {
	out := make([]*Operation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lin < out[j].Lin })
	return stampOrder(out)
}

// ByMinMax is the FIFO lower-bound linearizer: it repeatedly looks at the
// "first overlap group" — the pending REMOVEs whose Start precedes the
// earliest End among all pending REMOVEs — and orders the group member
// whose matching INSERT started earliest next; ties go to the REMOVE that
// started first.
// That REMOVE's matching INSERT (if not already ordered) is placed
// immediately before it. Any INSERT that is never matched to a REMOVE is
// appended, in Start order, once every REMOVE has been placed.
//
// Grounded on original_source's linearizer_max.cpp iterative first-overlap-
// group selection.
func ByMinMax(ops []*Operation) []*Operation {
	var removes []*Operation
	insertPlaced := make(map[*Operation]bool)
	var order []*Operation

	for _, op := range ops {
		if op.Type == Remove {
			removes = append(removes, op)
		}
	}
	sort.SliceStable(removes, func(i, j int) bool { return removes[i].Start < removes[j].Start })

	pending := make([]*Operation, len(removes))
	copy(pending, removes)

	placeInsert := func(insert *Operation) {
		if insert == nil || insertPlaced[insert] {
			return
		}
		insertPlaced[insert] = true
		order = append(order, insert)
	}

	for len(pending) > 0 {
		earliestEnd := pending[0].End
		for _, r := range pending[1:] {
			if r.End < earliestEnd {
				earliestEnd = r.End
			}
		}
		var group []*Operation
		for _, r := range pending {
			if r.Start < earliestEnd {
				group = append(group, r)
			}
		}
		if len(group) == 0 {
			group = pending
		}
		best := group[0]
		for _, r := range group[1:] {
			if matchStart(r) < matchStart(best) {
				best = r
			}
		}
		placeInsert(best.Matching)
		order = append(order, best)

		for i, r := range pending {
			if r == best {
				pending = append(pending[:i], pending[i+1:]...)
				break
			}
		}
	}

	var leftoverInserts []*Operation
	for _, op := range ops {
		if op.Type == Insert && !insertPlaced[op] {
			leftoverInserts = append(leftoverInserts, op)
		}
	}
	sort.SliceStable(leftoverInserts, func(i, j int) bool { return leftoverInserts[i].Start < leftoverInserts[j].Start })
	order = append(order, leftoverInserts...)

	return stampOrder(order)
}

func matchStart(op *Operation) uint64 {
	if op.Matching == nil {
		return op.Start
	}
	return op.Matching.Start
}

// selectable reports whether op may be placed next: per spec.md §4.5, an
// operation is selectable iff, among its overlaps, fewer have a matched
// operation ordered after this one's match than before it.
func selectable(op *Operation, overlaps OverlapIndex) bool {
	var before, after int
	opMatchOrder := matchLinOrder(op)
	for _, other := range overlaps.Overlaps(op) {
		otherMatchOrder := matchLinOrder(other)
		if otherMatchOrder < opMatchOrder {
			before++
		} else if otherMatchOrder > opMatchOrder {
			after++
		}
	}
	return after < before
}

func matchLinOrder(op *Operation) int {
	if op.Matching == nil {
		return op.LinOrder
	}
	return op.Matching.LinOrder
}

// ByMinSum is the iterative fixed-point linearizer: starting from the
// invocation order, each iteration stably re-sorts all operations so that
// selectable ones come before the rest, each group ordered by its matched
// operation's start, and re-stamps LinOrder; it repeats until the order
// stops changing (or a generous iteration cap is hit, guarding against a
// non-converging pathological log). Removes and inserts are sorted together
// in one pass, and no cost function is consulted.
//
// Grounded on original_source's linearizer_sum.cpp fixed-point loop. This
// port is a pragmatic re-expression of that loop's intent (selectable-first
// ordering refined to a fixed point) rather than a literal translation of
// its doubly-linked-list Node/Traces object graph — documented in
// DESIGN.md.
func ByMinSum(ops []*Operation) []*Operation {
	order := ByInvocation(ops)
	overlaps := PrecomputeOverlaps(ops)

	const maxIterations = 32
	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		next := make([]*Operation, len(order))
		copy(next, order)

		sort.SliceStable(next, func(i, j int) bool {
			si, sj := selectable(next[i], overlaps), selectable(next[j], overlaps)
			if si != sj {
				return si && !sj
			}
			return matchStart(next[i]) < matchStart(next[j])
		})

		for i := range next {
			if next[i] != order[i] {
				changed = true
			}
		}
		order = next
		stampOrder(order)
		if !changed {
			break
		}
	}
	return order
}
