// Package gateway turns a persona instruction and a message into generated
// text through a model.Model.
//
// The gateway is the single exit point to the external generation
// capability. It drains the model's response channels, enforces a per-call
// timeout and normalises every failure into *core.GenerationError so callers
// can branch with errors.Is(err, core.ErrGeneration).
package gateway
