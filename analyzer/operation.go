// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package analyzer scores a log of pool operations against FIFO semantics:
// it matches each REMOVE to the INSERT it actually returned, linearizes the
// log under several policies, and reports how far each linearization's
// order strays from the ideal FIFO order as a histogram of per-operation
// error counts.
//
// Grounded on original_source's analyzer/ and verifier/ trees (parser.cpp,
// semantic.cpp, linearizer*.cpp, histogram.h, fifoExecuter*.cpp), adapted
// from their Operation/Node/Trace object graph into flat Go structs and
// free functions operating on []*Operation.
package analyzer

// Type distinguishes an INSERT from a REMOVE log entry.
type Type int

const (
	Insert Type = iota
	Remove
)

func (t Type) String() string {
	if t == Insert {
		return "INSERT"
	}
	return "REMOVE"
}

// Operation is one parsed log entry plus every field later analysis stages
// attach to it. Start/End are mutated in place by Match's adjustment step;
// RealStart/RealEnd retain the values exactly as logged, for Age/Lateness
// computations that must compare against what actually happened rather
// than the FIFO-adjusted interval.
type Operation struct {
	ID    int
	Type  Type
	Value int64

	Start uint64
	Lin   uint64
	End   uint64

	RealStart uint64
	RealEnd   uint64

	// Matching is the paired operation: an INSERT's matching REMOVE (or nil
	// if the element was never removed), a non-null REMOVE's matching
	// INSERT, or the REMOVE itself for a null-return.
	Matching *Operation

	// Order is this operation's index in the log as parsed.
	Order int
	// LinOrder is the position assigned by whichever linearizer last ran.
	LinOrder int

	Error     int
	Age       int
	Lateness  int
	Overtakes int
}

// IsNullReturn reports whether op is a REMOVE that returned no element (a
// parsed log value of 0, re-mapped to a unique negative value).
func (op *Operation) IsNullReturn() bool {
	return op.Type == Remove && op.Value < 0
}
