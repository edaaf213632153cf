// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates TryPop found no element on this attempt.
//
// Because a MultiQueue is relaxed, this does not necessarily mean the
// MultiQueue is empty: another thread may hold an element behind a guard
// this call did not examine, or the two sequential queues a policy
// selected may both have looked empty under contention even though a
// third queue was not. The caller should retry, optionally with backoff,
// rather than treating the return as proof of emptiness.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency with
// the ambient ecosystem's non-blocking queue API.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrTooManyHandles is returned by [MultiQueue.GetHandle] when every id in
// the handle pool (numThreads rounded up to a power of two, at least 2) is
// already on loan to an open [Handle]. It is
// an allocation-failure condition, not a contention signal: retrying
// immediately will not help, the caller must wait for a Handle to Close.
var ErrTooManyHandles = errors.New("mpq: too many handles outstanding")

// ErrHandleClosed is returned by Handle operations performed after
// [Handle.Close] has already run. Go has no destructor to make reuse of a
// closed Handle a compile error, so this is the runtime substitute for
// the original's move-only ownership discipline.
var ErrHandleClosed = errors.New("mpq: handle is closed")

// IsWouldBlock reports whether err indicates TryPop found no element on
// this attempt. Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal rather than a
// failure. Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil or [ErrWouldBlock]. Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}
