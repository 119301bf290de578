// Package drilldown keeps the passages a chair has flagged for follow-up.
//
// A Queue holds flagged items in insertion order plus at most one pending
// item, the one selected to be fired next. Items are identified by their
// ID; positional indices are a presentation convenience only.
package drilldown
