// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tsbuffer implements the Timestamped buffer family: every
// producer owns a singly-linked list of its own inserts, each stamped by a
// Clock at insertion time, and a consumer scans all producers' lists to
// remove the extremal (oldest for Queue, newest for Stack) timestamped
// element.
//
// Grounded on original_source's ts_timestamp.h (the Clock family) and
// ts_queue_buffer.h (the per-producer buffer, scan, and emptiness-check
// algorithm).
package tsbuffer

import (
	"time"

	"code.hybscloud.com/atomix"
)

// Clock assigns a monotonically-informative timestamp to each Put, and
// reports the current logical time for a consumer's start-of-scan bound.
type Clock interface {
	// Timestamp returns a new timestamp for a Put issued by producer
	// producerID.
	Timestamp(producerID int) uint64
	// ReadTime returns the current logical time, used by a consumer to
	// bound which items it is allowed to remove.
	ReadTime() uint64
}

// StutteringClock is a per-producer logical counter requiring no
// read-after-write or write-after-read synchronization between producers:
// Timestamp scans every producer's last-published value, then publishes
// one more than the maximum it saw.
//
// Grounded on ts_timestamp.h's StutteringTimeStamp.
type StutteringClock struct {
	clocks []atomix.Uint64
}

// NewStutteringClock constructs a StutteringClock for numProducers
// producers.
func NewStutteringClock(numProducers int) *StutteringClock {
	if numProducers <= 0 {
		panic("tsbuffer: numProducers must be positive")
	}
	c := &StutteringClock{clocks: make([]atomix.Uint64, numProducers)}
	for i := range c.clocks {
		c.clocks[i].StoreRelease(1)
	}
	return c
}

func (c *StutteringClock) latest() uint64 {
	var latest uint64
	for i := range c.clocks {
		if v := c.clocks[i].LoadAcquire(); v > latest {
			latest = v
		}
	}
	return latest
}

func (c *StutteringClock) Timestamp(producerID int) uint64 {
	next := c.latest() + 1
	c.clocks[producerID].StoreRelease(next)
	return next
}

func (c *StutteringClock) ReadTime() uint64 {
	return c.latest()
}

// AtomicClock is a single shared fetch-and-increment counter.
//
// Grounded on ts_timestamp.h's AtomicCounterTimeStamp.
type AtomicClock struct {
	counter atomix.Uint64
}

// NewAtomicClock constructs an AtomicClock.
func NewAtomicClock() *AtomicClock {
	c := &AtomicClock{}
	c.counter.StoreRelease(1)
	return c
}

func (c *AtomicClock) Timestamp(int) uint64 {
	return c.counter.AddAcqRel(1) - 1
}

func (c *AtomicClock) ReadTime() uint64 {
	return c.counter.LoadAcquire()
}

// HardwareClock stamps with a wall-clock nanosecond reading in place of the
// original's rdtsc cycle counter, which Go has no portable equivalent of.
//
// Grounded on ts_timestamp.h's HardwareTimeStamp.
type HardwareClock struct{}

func (HardwareClock) Timestamp(int) uint64 { return uint64(time.Now().UnixNano()) }
func (HardwareClock) ReadTime() uint64     { return uint64(time.Now().UnixNano()) }

// ShiftedHardwareClock is HardwareClock shifted right by one bit, matching
// the original's halving of the cycle counter to slow its wraparound.
//
// Grounded on ts_timestamp.h's ShiftedHardwareTimeStamp.
type ShiftedHardwareClock struct{}

func (ShiftedHardwareClock) Timestamp(int) uint64 { return uint64(time.Now().UnixNano()) >> 1 }
func (ShiftedHardwareClock) ReadTime() uint64     { return uint64(time.Now().UnixNano()) >> 1 }
