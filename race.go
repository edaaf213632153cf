// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package mpq

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrent stress tests against [MultiQueue],
// which trigger false positives: the race detector cannot observe the
// happens-before relationships the guarded queues' acquire/release atomics
// establish across goroutines.
const RaceEnabled = true
