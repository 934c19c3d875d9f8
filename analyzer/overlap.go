// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

// OverlapIndex answers "which operations overlap this one" and "which
// same-type operations overlap this one" in O(overlap) per query, built
// once by PrecomputeOverlaps.
type OverlapIndex struct {
	overlaps map[*Operation][]*Operation
	sameType map[*Operation][]*Operation
	all      []*Operation
}

// Overlaps returns every operation whose interval overlaps op's.
func (idx OverlapIndex) Overlaps(op *Operation) []*Operation { return idx.overlaps[op] }

// SameTypeOverlaps returns the subset of Overlaps(op) sharing op's Type.
func (idx OverlapIndex) SameTypeOverlaps(op *Operation) []*Operation { return idx.sameType[op] }

// All returns every operation the index was built from.
func (idx OverlapIndex) All() []*Operation { return idx.all }

// PrecomputeOverlaps sorts ops by Start and sweeps forward: since op[j]'s
// start only increases with j, op[i] and op[j] (j > i) overlap whenever
// op[j].Start < op[i].End — op[i].Start <= op[j].Start is automatic from the
// sort, so that single comparison is both necessary and sufficient, and the
// sweep can stop at the first j whose start has moved past op[i]'s end.
//
// Grounded on spec.md §4.5's overlap precomputation description.
func PrecomputeOverlaps(ops []*Operation) OverlapIndex {
	idx := OverlapIndex{
		overlaps: make(map[*Operation][]*Operation, len(ops)),
		sameType: make(map[*Operation][]*Operation, len(ops)),
		all:      ops,
	}
	sorted := sortedByStart(ops)
	for i, op := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			other := sorted[j]
			if other.Start >= op.End {
				break
			}
			idx.overlaps[op] = append(idx.overlaps[op], other)
			idx.overlaps[other] = append(idx.overlaps[other], op)
			if other.Type == op.Type {
				idx.sameType[op] = append(idx.sameType[op], other)
				idx.sameType[other] = append(idx.sameType[other], op)
			}
		}
	}
	return idx
}
