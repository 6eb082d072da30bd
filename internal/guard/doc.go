// Package guard enforces that at most one wasmlet server runs per machine.
//
// The contract is built on a persisted PID record at a fixed location:
//
//   - absent record: no prior instance, start-up proceeds
//   - stale record (dead PID): removed, start-up proceeds
//   - live record: the recorded process is force-killed first
//
// The exiting server never removes its own record; cleanup always
// happens on the next start-up's liveness check. A stale-but-harmless
// record between exit and the next start is accepted.
//
// The package also provides the advisory TCP port probe consumed
// immediately before the real listener bind.
package guard
