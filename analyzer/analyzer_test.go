// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package analyzer_test

import (
	"strings"
	"testing"

	"code.hybscloud.com/scal/analyzer"
	"github.com/stretchr/testify/require"
)

// perfectFIFOLog is four inserts and four removes in strict, non-overlapping
// FIFO order: every remove should carry zero semantic error.
const perfectFIFOLog = `0 1 0 1 1
1 1 2 3 3
0 2 4 5 5
1 2 6 7 7
0 3 8 9 9
1 3 10 11 11
0 4 12 13 13
1 4 14 15 15
`

func mustParse(t *testing.T, log string) []*analyzer.Operation {
	t.Helper()
	ops, err := analyzer.Parse(strings.NewReader(log))
	require.NoError(t, err)
	return ops
}

func TestParseRejectsMalformedLine(t *testing.T) {
	_, err := analyzer.Parse(strings.NewReader("not a valid line\n"))
	require.Error(t, err)
	var logErr *analyzer.LogIntegrityError
	require.ErrorAs(t, err, &logErr)
}

func TestParseRemapsNullReturnValuesUniquely(t *testing.T) {
	ops := mustParse(t, "1 0 0 1 1\n1 0 2 3 3\n")
	require.Len(t, ops, 2)
	require.NotEqual(t, ops[0].Value, ops[1].Value)
	require.True(t, ops[0].IsNullReturn())
	require.True(t, ops[1].IsNullReturn())
}

func TestParseSubstitutesMissingLinTimeWithEnd(t *testing.T) {
	ops := mustParse(t, "0 1 0 0 5\n")
	require.Equal(t, uint64(5), ops[0].Lin)
}

func TestMatchBuildsBijectionAndAdjusts(t *testing.T) {
	ops := mustParse(t, perfectFIFOLog)
	require.NoError(t, analyzer.Match(ops))

	for _, op := range ops {
		if op.Type != analyzer.Remove {
			continue
		}
		require.NotNil(t, op.Matching)
		require.Equal(t, op.Value, op.Matching.Value)
		require.GreaterOrEqual(t, op.Start, op.Matching.Start)
		require.LessOrEqual(t, op.Matching.End, op.End)
	}
}

func TestMatchFlagsUnmatchedRemove(t *testing.T) {
	ops := mustParse(t, "1 5 0 1 1\n")
	err := analyzer.Match(ops)
	require.Error(t, err)
	var logErr *analyzer.LogIntegrityError
	require.ErrorAs(t, err, &logErr)
}

func TestMatchLeavesUnreturnedInsertUnflagged(t *testing.T) {
	ops := mustParse(t, "0 1 0 1 1\n")
	require.NoError(t, analyzer.Match(ops))
	require.Nil(t, ops[0].Matching)
}

func TestPerfectFIFOHasZeroSemanticError(t *testing.T) {
	ops := mustParse(t, perfectFIFOLog)
	require.NoError(t, analyzer.Match(ops))
	overlaps := analyzer.PrecomputeOverlaps(ops)
	analyzer.ByLinPoint(ops)

	for _, op := range ops {
		if op.Type != analyzer.Remove {
			continue
		}
		require.Zero(t, analyzer.SemanticErrorLowerBound(op, overlaps))
		require.Zero(t, analyzer.SemanticErrorUpperBound(op, overlaps))
	}
}

// outOfOrderLog: insert(1) completes fully before insert(2) even starts,
// but the remove that follows returns value 2 while value 1's element is
// still outstanding — a provable FIFO violation for that remove. A second
// remove later returns value 1 once it is the only element left.
const outOfOrderLog = `0 1 0 1 1
0 2 2 3 3
1 2 4 5 5
1 1 10 11 11
`

func TestOutOfOrderRemoveHasPositiveSemanticError(t *testing.T) {
	ops := mustParse(t, outOfOrderLog)
	require.NoError(t, analyzer.Match(ops))
	overlaps := analyzer.PrecomputeOverlaps(ops)

	var remove2 *analyzer.Operation
	for _, op := range ops {
		if op.Type == analyzer.Remove && op.Value == 2 {
			remove2 = op
		}
	}
	require.NotNil(t, remove2)
	require.Positive(t, analyzer.SemanticErrorLowerBound(remove2, overlaps))
}

func TestLinearizersStampDistinctOrders(t *testing.T) {
	ops := mustParse(t, outOfOrderLog)
	require.NoError(t, analyzer.Match(ops))

	analyzer.ByInvocation(ops)
	invocationOrder := ordersOf(ops)

	analyzer.ByResponse(ops)
	responseOrder := ordersOf(ops)

	require.Len(t, invocationOrder, len(ops))
	require.Len(t, responseOrder, len(ops))
	require.ElementsMatch(t, []int{0, 1, 2, 3}, invocationOrder)
	require.ElementsMatch(t, []int{0, 1, 2, 3}, responseOrder)
}

func ordersOf(ops []*analyzer.Operation) []int {
	out := make([]int, len(ops))
	for i, op := range ops {
		out[i] = op.LinOrder
	}
	return out
}

func TestByMinMaxProducesATotalOrder(t *testing.T) {
	ops := mustParse(t, outOfOrderLog)
	require.NoError(t, analyzer.Match(ops))
	linearized := analyzer.ByMinMax(ops)
	require.Len(t, linearized, len(ops))
	seen := make(map[int]bool)
	for _, op := range linearized {
		require.False(t, seen[op.LinOrder])
		seen[op.LinOrder] = true
	}
}

func TestByMinSumConverges(t *testing.T) {
	ops := mustParse(t, outOfOrderLog)
	require.NoError(t, analyzer.Match(ops))
	linearized := analyzer.ByMinSum(ops)
	require.Len(t, linearized, len(ops))
}

func TestExecuteWithOverlapsRecordsHistogram(t *testing.T) {
	ops := mustParse(t, outOfOrderLog)
	require.NoError(t, analyzer.Match(ops))
	overlaps := analyzer.PrecomputeOverlaps(ops)
	analyzer.ByLinPoint(ops)

	h := analyzer.ExecuteWithOverlaps(ops, overlaps, analyzer.SemanticErrorLowerBound)
	require.Equal(t, uint64(2), h.Samples())
}

func TestAggregateSummarizesHistogramAndFairness(t *testing.T) {
	ops := mustParse(t, perfectFIFOLog)
	require.NoError(t, analyzer.Match(ops))
	overlaps := analyzer.PrecomputeOverlaps(ops)
	analyzer.ByLinPoint(ops)
	h := analyzer.ExecuteWithOverlaps(ops, overlaps, analyzer.SemanticErrorLowerBound)

	agg := analyzer.BuildAggregate(ops, overlaps, h)
	require.Zero(t, agg.Total)
	require.Zero(t, agg.Max)
	require.Equal(t, 4, agg.Inserts.Count)
}

func TestParseMatchRoundTripIsBijective(t *testing.T) {
	ops := mustParse(t, perfectFIFOLog)
	require.NoError(t, analyzer.Match(ops))

	matched := make(map[*analyzer.Operation]bool)
	for _, op := range ops {
		if op.Type != analyzer.Remove || op.IsNullReturn() {
			continue
		}
		require.False(t, matched[op.Matching], "insert matched more than once")
		matched[op.Matching] = true
	}
}
