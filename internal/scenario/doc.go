// Package scenario runs scripted cache sessions.
//
// A script is a YAML file listing steps executed in order against a Cache,
// normally one just built with cache.New:
//
//	name: basic
//	description: store two values and read them back
//	steps:
//	  - store: { kind: text, value: foo }
//	  - store: { kind: int, value: 42 }
//	  - get: { ref: 1, as: int, expect: 42 }
//	  - get: { key: nope, as: text, missing: true }
//	  - count: { name: Cache.Store, expect: 2 }
//	  - replay: Cache.Store
//
// Step kinds:
//   - store: write a value; its key is remembered by position
//   - get: read by ref (0-based index of an earlier store step) or literal
//     key, decode as a kind, optionally check the result
//   - count: check an operation's call counter
//   - replay: append the operation's replay report to the trace
//
// Scripts are checked twice before running: strict YAML decoding (unknown
// fields rejected) and an embedded CUE schema.
//
// Expectation mismatches are collected in Result.Errors and mark the run
// as failed; store errors abort the run.
package scenario
