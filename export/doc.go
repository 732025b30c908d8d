// Package export serializes registry snapshots for operators.
//
// Two formats are supported: CSV with one quoted row per check and the
// result rendered as compact JSON text, and indented JSON with the result
// nested as structured data. Both reflect each record's state at call
// time, including records that never ran.
package export
