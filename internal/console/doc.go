// Package console implements the interactive chair console used by
// `lyceum chat`. Lines starting with a slash are commands; any other line is
// addressed to the current target persona.
package console
