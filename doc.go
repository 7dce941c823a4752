// Package flowrt is the concurrency substrate of a dataflow runtime that
// composes user-defined operators into pipelines.
//
// An operator has typed inputs and outputs and is driven by a scheduling
// term that decides when the operator is ready to execute. Operators
// exchange values through typed channels; the channel subpackage provides
// an unbuffered single-slot handoff and an immediate rendezvous channel. Execution is cooperative: operators run on goroutines that
// suspend on channel operations and are resumed by a fixed worker pool
// (see the pool subpackage).
//
// # Task, AsyncGenerator, Latch, SymmetricTransfer
//
// This package provides the four leaf primitives everything else in the
// runtime is built from:
//
//   - [Task] is a one-shot, lazily started unit of work with a typed result.
//   - [AsyncGenerator] is a lazy, pull-based sequence of values.
//   - [Latch] and [WaitGroup] are count-down/count-up synchronization points.
//   - [SymmetricTransfer] is the single-producer/single-consumer hand-off
//     that backs a direct operator-to-operator edge (see the edge
//     subpackage) without going through a channel.
//
// None of these types spawns or depends on a worker pool; they are plain
// goroutines and channels. The pool subpackage is only needed once an
// operator wants its resumptions to happen on a bounded, named set of
// workers rather than on whatever goroutine happens to wake it.
//
// # Errors
//
// Failures are represented as [Status] values (Closed, ShutdownRejected,
// ProtocolMisuse) or, for a panicking Task body, as [TaskFailure]. Both
// implement error.
package flowrt
