// Package ingest turns uploaded anchor documents into plain text.
//
// Only textual formats are accepted. Anything else fails with
// core.ErrIngestion and callers continue without supplementary text.
package ingest
