// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

import "sort"

// Match builds the REMOVE↔INSERT bijection: every non-null REMOVE's value
// already names the INSERT it returned (the log's value field is the
// pairing key), so matching reduces to grouping by value. A null-return
// REMOVE is self-matched. An INSERT with no matching REMOVE is left with a
// nil Matching (its element was never dequeued). Match then performs the
// start/end adjustment of spec.md §4.5 on every matched pair.
//
// Grounded on original_source's semantic.cpp matching/pruning idea,
// generalized to a direct value-keyed match since this log's value field
// already encodes the pairing (the original's FifoSemantic::check instead
// searches a candidate trace for the first unmatched INSERT of the right
// value, which this port's log format makes unnecessary).
func Match(ops []*Operation) error {
	insertsByValue := make(map[int64]*Operation)
	for _, op := range ops {
		if op.Type == Insert {
			insertsByValue[op.Value] = op
		}
	}

	for _, op := range ops {
		if op.Type != Remove {
			continue
		}
		if op.IsNullReturn() {
			op.Matching = op
			continue
		}
		insert, ok := insertsByValue[op.Value]
		if !ok {
			return &LogIntegrityError{Line: op.Order, Reason: "remove has no matching insert for its value", Code: 10}
		}
		op.Matching = insert
		insert.Matching = op
	}

	for _, op := range ops {
		if op.Type != Remove || op.IsNullReturn() {
			continue
		}
		insert := op.Matching
		if op.Start < insert.Start {
			op.Start = insert.Start
		}
		if insert.End > op.End {
			insert.End = op.End
		}
		if insert.Start > op.End {
			return &LogIntegrityError{Line: op.Order, Reason: "matching insert starts after its remove ends", Code: 11}
		}
	}
	return nil
}

// sortedByStart returns a copy of ops sorted ascending by Start, stable on
// ID to give deterministic tie-breaking.
func sortedByStart(ops []*Operation) []*Operation {
	out := make([]*Operation, len(ops))
	copy(out, ops)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
