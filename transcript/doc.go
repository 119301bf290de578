// Package transcript holds the ordered record of a forum discussion and its
// export formats.
//
// Storage is chronological; display orders (newest first) are views built by
// Reversed and never mutate the store.
package transcript
