// Package errors provides structured, actionable error messages for wasmlet.
//
// Every fatal condition the CLI can hit maps to a stable error code
// (e.g., "E201") that carries:
//   - A short message describing the error
//   - A detailed explanation
//   - A hint on how to fix it
//
// # Error Categories
//
// Errors are organized into categories:
//   - config: wasmlet.json problems (missing file, bad JSON, bad values)
//   - server: start-up failures (port in use, artifact missing, bind)
//   - guard: single-instance enforcement failures
//   - plugin: plugin installation and lookup failures
//   - cli: everything else surfaced to the user
//
// # Usage
//
//	err := errors.New("E201").
//	    WithDetailf("Port %d is bound by another process.", 8080)
//
//	errors.PrintError(err)
package errors
