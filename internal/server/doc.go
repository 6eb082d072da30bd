// Package server implements the wasmlet development server.
//
// The server serves a compiled WASM artifact (optionally with a JS
// glue script) to a browser for interactive testing:
//
//   - Router: resolves request paths in fixed priority order (entry
//     page, artifact, glue script, reload poll, assets, output files,
//     generated-name fallbacks, SPA fallback)
//   - Signal: the level-triggered rebuild flag browsers poll for,
//     plus the observed-client list
//   - AssetResolver: sanitized reads from the static assets root
//   - Server: start-up sequence (single-instance guard, port probe,
//     artifact check, bind, PID publish) and the HTTP handler stack
//
// # Reload Protocol
//
// Browsers poll GET /reload-check (or /reload). The answer is plain
// text: "not-watching" when watch mode is off, otherwise "reload" or
// "no-reload". Reading "reload" consumes the flag, so exactly one
// poll observes each rebuild.
package server
