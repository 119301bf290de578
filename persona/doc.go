// Package persona holds the Persona Registry: the static mapping from a
// persona identifier to its behavioural contract (system instruction) and
// presentation metadata (display name, icon).
//
// Contracts are configuration data. The default set is embedded from
// personas.yaml; LoadFile replaces it with an operator supplied document that
// must cover exactly the closed persona set of package core. Instructions are
// rendered once at load time, so Get and Compose are side-effect free and
// safe to share across forums.
package persona
