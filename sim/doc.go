// Package sim provides the discrete-event engine of the kitchen simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - pipeline.go: dish lifecycle (queued → boiling → plating wait → plated → ready → served)
//   - worker.go: staff state, instruction tokens and per-worker queues
//   - kitchen.go: the command API, feasibility checks and event emission
//
// # Time
//
// Every timed effect goes through a Clock. VirtualClock is advanced by hand
// and makes runs reproducible; RealClock fires on the wall clock and posts
// its callbacks to a Loop, the single goroutine that owns the Kitchen in
// real-time mode.
//
// # Architecture
//
// The sim package owns the state machine; collaborators live in sub-packages:
//   - sim/trace/: in-memory event recording and run summaries
//   - sim/journal/: durable event journal on badger
//
// Collaborators observe the kitchen only through EventSink and Snapshot.
// Advisories and recommendations are pure functions of a Snapshot.
package sim
