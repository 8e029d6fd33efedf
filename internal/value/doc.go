// Package value defines the payloads a cache can hold.
//
// A Value is one of four closed variants: Text, Binary, Integer and Float.
// Each variant knows its own wire encoding (the bytes written to the
// external store) and each has a matching decoder for reading it back.
//
// Argument lists are recorded in call histories as canonical JSON produced
// by Snapshot:
//   - object keys sorted by UTF-16 code units (RFC 8785)
//   - strings NFC normalised, no HTML escaping
//   - non-finite floats rendered as strings
//
// value imports nothing internal.
package value
