// Package page generates the entry HTML served at the server root.
//
// Two loader variants exist: a direct WebAssembly.instantiateStreaming
// loader for bare modules, and a module-script loader for builds that
// produce a JS glue script alongside the binary. Watch mode appends a
// polling client that hits /reload-check and reloads the page when the
// server reports a rebuild.
package page
