// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package dds

import (
	"math/rand"

	"code.hybscloud.com/atomix"
)

// Balancer chooses which backend a DDS's Put or Get should address.
// numBackends is passed on every call rather than fixed at construction so
// a Balancer can be shared across a DynamicDDS whose backend count grows
// at runtime.
type Balancer interface {
	// PutID returns the backend index to route a Put to.
	PutID(numBackends int) int
	// GetID returns the backend index the first round of a Get's scan
	// should start from.
	GetID(numBackends int) int
}

// OneRandomBalancer routes both Put and Get to a uniformly random backend.
//
// Grounded on balancer_1random.h.
type OneRandomBalancer struct{}

func (OneRandomBalancer) PutID(numBackends int) int { return randIndex(numBackends) }
func (OneRandomBalancer) GetID(numBackends int) int { return randIndex(numBackends) }

func randIndex(n int) int {
	if n == 1 {
		return 0
	}
	return rand.Intn(n)
}

// LocalLinearizabilityBalancer fixes a random permutation of backend
// indices at construction and routes each producer's Put to its own slot
// in that permutation (indexed by ThreadID), while Get remains uniformly
// random. Operations originating from the same producer observe a locally
// linearizable order against each other, even though the DDS as a whole is
// only globally k-relaxed.
//
// Grounded on balancer_local_linearizability.h. ThreadID plays the role of
// scal::ThreadContext::get().thread_id(): callers supply a function
// returning a small, stable integer identifying the calling producer (for
// example a worker index assigned by the benchmark driver), since Go has
// no equivalent of a pinned OS thread id to read implicitly.
type LocalLinearizabilityBalancer struct {
	distribution []int
	ThreadID     func() int
}

// NewLocalLinearizabilityBalancer builds the fixed permutation of size
// distributionSize used to route producers to backends.
func NewLocalLinearizabilityBalancer(distributionSize int, threadID func() int) *LocalLinearizabilityBalancer {
	if distributionSize <= 0 {
		panic("dds: distributionSize must be positive")
	}
	d := make([]int, distributionSize)
	for i := range d {
		d[i] = i
	}
	rand.Shuffle(len(d), func(i, j int) { d[i], d[j] = d[j], d[i] })
	return &LocalLinearizabilityBalancer{distribution: d, ThreadID: threadID}
}

func (b *LocalLinearizabilityBalancer) PutID(numBackends int) int {
	if numBackends == 1 {
		return 0
	}
	id := b.distribution[b.ThreadID()%len(b.distribution)]
	return id % numBackends
}

func (b *LocalLinearizabilityBalancer) GetID(numBackends int) int {
	return randIndex(numBackends)
}

// PartitionedRoundRobinBalancer splits producers and consumers into
// Partitions independent round-robin groups, each with its own Put and Get
// cursor, so contention on a single shared counter is spread across
// Partitions cache lines.
//
// Grounded on balancer_partrr.h.
type PartitionedRoundRobinBalancer struct {
	partitions int
	enqueueRR  []atomix.Uint64
	dequeueRR  []atomix.Uint64
	ThreadID   func() int
}

// NewPartitionedRoundRobinBalancer constructs a balancer with the given
// number of partitions, each seeded to start at an evenly spaced offset
// across numBackends backends.
func NewPartitionedRoundRobinBalancer(partitions, numBackends int, threadID func() int) *PartitionedRoundRobinBalancer {
	if partitions <= 0 {
		panic("dds: partitions must be positive")
	}
	b := &PartitionedRoundRobinBalancer{
		partitions: partitions,
		enqueueRR:  make([]atomix.Uint64, partitions),
		dequeueRR:  make([]atomix.Uint64, partitions),
		ThreadID:   threadID,
	}
	for i := 0; i < partitions; i++ {
		start := uint64((numBackends / partitions) * i)
		b.enqueueRR[i].Store(start)
		b.dequeueRR[i].Store(start)
	}
	return b
}

func (b *PartitionedRoundRobinBalancer) PutID(numBackends int) int {
	p := b.ThreadID() % b.partitions
	return int(b.enqueueRR[p].Add(1)-1) % numBackends
}

func (b *PartitionedRoundRobinBalancer) GetID(numBackends int) int {
	p := b.ThreadID() % b.partitions
	return int(b.dequeueRR[p].Add(1)-1) % numBackends
}

// IDBalancer routes both Put and Get deterministically by ThreadID modulo
// the backend count, so a given producer always targets the same backend.
//
// Grounded on balancer_id.h.
type IDBalancer struct {
	ThreadID func() int
}

func (b *IDBalancer) PutID(numBackends int) int {
	if numBackends == 1 {
		return 0
	}
	return b.ThreadID() % numBackends
}

func (b *IDBalancer) GetID(numBackends int) int {
	return b.PutID(numBackends)
}

// RandomIDBalancer routes Put by ThreadID modulo the backend count (like
// IDBalancer) but Get uniformly at random.
//
// Grounded on balancer_random_id.h.
type RandomIDBalancer struct {
	ThreadID func() int
}

func (b *RandomIDBalancer) PutID(numBackends int) int {
	if numBackends == 1 {
		return 0
	}
	return b.ThreadID() % numBackends
}

func (b *RandomIDBalancer) GetID(numBackends int) int {
	return randIndex(numBackends)
}
