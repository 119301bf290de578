// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing turns and transcripts. The helpers depend
// on core only and are not intended for production usage.
package testutil
