// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package racetag

// Enabled is true when the race detector is active. Concurrent stress
// tests across kfifo, dds, and tsbuffer skip themselves when Enabled,
// since the race detector cannot observe the happens-before relationships
// established by the tagged-CAS and acquire/release orderings these
// containers rely on and reports false positives.
const Enabled = true
