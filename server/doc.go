// Package server exposes the chair command surface as a JSON HTTP API built
// on fiber. Every response uses the {success, message, data} envelope and
// errors are mapped to status codes in one place.
package server
