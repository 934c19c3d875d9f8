// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

// FairnessAggregate summarizes ElementFairness across one operation type.
type FairnessAggregate struct {
	Count int
	Total int
	Mean  float64
}

// Aggregate is the scalar summary spec.md §6 prints: total error, max,
// mean, stddev over the histogram, plus per-type fairness aggregates.
type Aggregate struct {
	Samples     uint64
	Total       uint64
	Max         int
	Mean        float64
	StdDev      float64
	Inserts     FairnessAggregate
	Removes     FairnessAggregate
	Performance float64
}

// BuildAggregate summarizes h plus per-element ElementFairness: Inserts
// covers every INSERT in ops, Removes only the INSERTs whose element was
// removed, each scored with that element's ElementFairness. Null-return
// REMOVEs are not included in either.
func BuildAggregate(ops []*Operation, overlaps OverlapIndex, h *Histogram) Aggregate {
	agg := Aggregate{
		Samples:     h.Samples(),
		Total:       h.CumulativeError(),
		Max:         h.Max(),
		Mean:        h.Mean(),
		StdDev:      h.StdDev(),
		Performance: PerformanceIndex(ops, overlaps),
	}

	for _, op := range ops {
		if op.Type != Insert {
			continue
		}
		fairness := ElementFairness(op, overlaps, ops)
		agg.Inserts.Count++
		agg.Inserts.Total += fairness
		if op.Matching != nil {
			agg.Removes.Count++
			agg.Removes.Total += fairness
		}
	}
	if agg.Inserts.Count > 0 {
		agg.Inserts.Mean = float64(agg.Inserts.Total) / float64(agg.Inserts.Count)
	}
	if agg.Removes.Count > 0 {
		agg.Removes.Mean = float64(agg.Removes.Total) / float64(agg.Removes.Count)
	}
	return agg
}
