// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

// CostFunc scores one operation's deviation from ideal FIFO order under a
// linearization already stamped into ops' LinOrder fields.
type CostFunc func(op *Operation, overlaps OverlapIndex) int

// SemanticErrorLowerBound counts the INSERTs, anywhere in the log, that
// finished strictly before op's matching INSERT started and were still
// outstanding (not yet matched to a REMOVE that had itself started by
// op's Start) at the moment op ran: those elements definitely entered the
// pool before the one op actually returned and definitely hadn't left it
// yet, so returning anything else is a provable FIFO violation.
//
// This does not restrict candidates to Overlaps(op): an INSERT that
// finished strictly before the matched INSERT started is, by definition,
// not concurrent with it, so it would never appear in op's own overlap
// list even though it is exactly the kind of INSERT this metric is
// counting.
//
// Grounded on spec.md §4.5's FIFO lower-bound semantic error definition.
func SemanticErrorLowerBound(op *Operation, overlaps OverlapIndex) int {
	if op.Type != Remove || op.Matching == nil {
		return 0
	}
	matchedInsert := op.Matching
	var n int
	for _, other := range overlaps.All() {
		if other.Type != Insert || other == matchedInsert {
			continue
		}
		if other.End >= matchedInsert.Start {
			continue
		}
		if other.Matching != nil && other.Matching.Start <= op.Start {
			continue // already removed before op ran
		}
		n++
	}
	return n
}

// SemanticErrorUpperBound counts concurrent INSERTs overlapping op (a
// REMOVE) whose value is not the one actually matched: any of them could
// have been dequeued in op's place.
func SemanticErrorUpperBound(op *Operation, overlaps OverlapIndex) int {
	if op.Type != Remove || op.Matching == nil {
		return 0
	}
	matchedInsert := op.Matching
	var n int
	for _, other := range overlaps.Overlaps(op) {
		if other.Type == Insert && other != matchedInsert {
			n++
		}
	}
	return n
}

// Age counts, among op's overlaps, those ordered earlier (lower LinOrder)
// but that actually started later in real time.
func Age(op *Operation, overlaps OverlapIndex) int {
	var n int
	for _, other := range overlaps.Overlaps(op) {
		if other.LinOrder < op.LinOrder && other.RealStart > op.RealStart {
			n++
		}
	}
	return n
}

// Lateness counts, among op's overlaps, those ordered later (higher
// LinOrder) but that actually started earlier in real time.
func Lateness(op *Operation, overlaps OverlapIndex) int {
	var n int
	for _, other := range overlaps.Overlaps(op) {
		if other.LinOrder > op.LinOrder && other.RealStart < op.RealStart {
			n++
		}
	}
	return n
}

// ElementFairness scores one element (identified by its INSERT) as the sum
// of the INSERT's Age and its matching REMOVE's Lateness, with two special
// cases from spec.md §4.5 (a null-return REMOVE has no INSERT and is passed
// in directly):
//
//   - a prophetic dequeue (a REMOVE whose RealStart precedes its matching
//     INSERT's RealStart — the remove was logged as starting before the
//     element it returned was even inserted) instead scores the count of
//     INSERTs that started within that impossible window, standing in for
//     "how many elements could plausibly have been the one returned";
//   - a null-return REMOVE instead scores the net element count outstanding
//     at its start (INSERTs that had started minus non-null REMOVEs that
//     had already completed), approximating how full the pool looked at
//     the moment it reported empty.
func ElementFairness(insert *Operation, overlaps OverlapIndex, allOps []*Operation) int {
	if insert.IsNullReturn() {
		return netElementsAt(insert.RealStart, allOps)
	}
	if insert.Type != Insert {
		return 0
	}
	remove := insert.Matching
	if remove == nil {
		return Age(insert, overlaps)
	}
	if remove.RealStart < insert.RealStart {
		return propheticWindowCount(remove, insert, allOps)
	}
	return Age(insert, overlaps) + Lateness(remove, overlaps)
}

func propheticWindowCount(remove, insert *Operation, allOps []*Operation) int {
	var n int
	for _, op := range allOps {
		if op.Type == Insert && op.RealStart >= remove.RealStart && op.RealStart <= insert.RealStart {
			n++
		}
	}
	return n
}

func netElementsAt(at uint64, allOps []*Operation) int {
	var inserted, removed int
	for _, op := range allOps {
		switch {
		case op.Type == Insert && op.RealStart < at:
			inserted++
		case op.Type == Remove && !op.IsNullReturn() && op.RealEnd < at:
			removed++
		}
	}
	if n := inserted - removed; n > 0 {
		return n
	}
	return 0
}

// PerformanceIndex summarizes how disordered a linearization is overall,
// independent of the FIFO-error cost functions above: the mean of
// Age+Lateness across every operation, normalized by its overlap count so
// operations in a busier region of the log aren't penalized just for
// having more neighbors to be compared against.
func PerformanceIndex(ops []*Operation, overlaps OverlapIndex) float64 {
	if len(ops) == 0 {
		return 0
	}
	var sum float64
	for _, op := range ops {
		n := len(overlaps.Overlaps(op))
		if n == 0 {
			continue
		}
		sum += float64(Age(op, overlaps)+Lateness(op, overlaps)) / float64(n)
	}
	return sum / float64(len(ops))
}
