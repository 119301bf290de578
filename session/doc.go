// Package session keeps the live forums of a process.
//
// Forums are volatile: they live in memory, expire after a period of
// inactivity and are lost on restart. Every Get refreshes a forum's expiry.
package session
