// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package scal is a research workbench of concurrent pool data structures
// and a quantitative linearizability analyzer.
//
// # Pools
//
// Three container families (kfifo and dds satisfy pool.Pool[T]; tsbuffer
// takes a producer index on Put and a per-goroutine consumer handle on Get
// instead):
//
//	kfifo      - k-FIFO queues (bounded and unbounded), relaxing FIFO
//	             order by up to k slots per segment.
//	dds        - the Distributed Data Structure: any pool.Backend sharded
//	             across P partial pools, routed through a pluggable
//	             dds.Balancer.
//	tsbuffer   - the Timestamped buffer family (queue, stack, deque):
//	             every element carries a timestamp, and a consumer scans
//	             all producers' buffers to remove the extremal one.
//
// All three are lock-free except dds.DynamicDDS, whose Grow takes a write
// lock and whose Put/Get take a read lock to snapshot the backend list.
//
// # Analyzer
//
// Package analyzer computes how far a recorded execution log deviates from
// a sequentially consistent FIFO order: it matches inserts to removes,
// computes one or more linearizations, scores each operation's semantic
// error/age/lateness/fairness against the chosen linearization, and
// aggregates the result into a histogram.
//
// # Command-line tools
//
// cmd/scal-bench drives any pool implementation under a configurable
// producer/consumer workload. cmd/scal-analyze runs the analyzer over a
// log file produced by scal-bench's --log-operations flag.
package scal
