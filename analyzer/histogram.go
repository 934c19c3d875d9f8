// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer

import "math"

// histogramSize matches the original's histogram.h bucket count: errors
// larger than the last bucket index are folded into it rather than
// dropped, so the sum of bucket counts always equals the sample count.
const histogramSize = 100 * 1024

// Histogram buckets per-operation semantic-error counts by error distance.
type Histogram struct {
	buckets [histogramSize]uint64
	samples uint64
	sum     uint64
	sumSq   float64
}

// NewHistogram returns an empty Histogram.
func NewHistogram() *Histogram {
	return &Histogram{}
}

// Record adds one sample with the given error distance.
func (h *Histogram) Record(errorDistance int) {
	if errorDistance < 0 {
		errorDistance = 0
	}
	idx := errorDistance
	if idx >= histogramSize {
		idx = histogramSize - 1
	}
	h.buckets[idx]++
	h.samples++
	h.sum += uint64(errorDistance)
	h.sumSq += float64(errorDistance) * float64(errorDistance)
}

// Samples returns the number of recorded samples.
func (h *Histogram) Samples() uint64 { return h.samples }

// CumulativeError returns the sum of every recorded error distance.
func (h *Histogram) CumulativeError() uint64 { return h.sum }

// Max returns the index of the highest non-empty bucket: the largest
// recorded error distance, except that any overflow reports as
// histogramSize-1, the bucket it was folded into. It returns 0 if no
// samples were recorded.
func (h *Histogram) Max() int {
	for i := histogramSize - 1; i >= 0; i-- {
		if h.buckets[i] > 0 {
			return i
		}
	}
	return 0
}

// Mean returns the average error distance across all samples.
func (h *Histogram) Mean() float64 {
	if h.samples == 0 {
		return 0
	}
	return float64(h.sum) / float64(h.samples)
}

// StdDev returns the population standard deviation of recorded error
// distances.
func (h *Histogram) StdDev() float64 {
	if h.samples == 0 {
		return 0
	}
	mean := h.Mean()
	variance := h.sumSq/float64(h.samples) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}
