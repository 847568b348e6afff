// Package kernel implements the core of stridekernd: a fixed-size
// process table, a doubly-linked runnable priority queue ordered by
// (pass, pid), the proportional-share stride scheduler that drains it,
// and the process state machine that keeps queue membership in sync
// with process state across fork/exit/wait/sleep/wakeup/kill.
//
// Every exported Table method that mutates the table or the queue
// requires the table lock (Table.lock, a Spinlock) to be held by the
// calling goroutine's *CPU; call sites document this in their own
// comments rather than repeating it package-wide. Kernel's methods take
// and release the lock themselves. Kernel-invariant
// violations (wrong lock/interrupt state, an illegal state transition)
// panic — they indicate a programming error in a caller, not a runtime
// condition a caller can recover from.
package kernel
