// Package core provides the foundational domain types shared by every Lyceum
// package. It defines the closed vocabulary of a forum:
//
//   - Speakers (the three specialists, the Orchestrator and the Forum Chair)
//   - Turns (immutable transcript entries stamped with a discourse mode)
//   - Discourse modes (Conference, Workshop, Lab)
//   - Drill-down items (flagged passages awaiting re-routing)
//   - The error taxonomy surfaced to the chair
//
// Implementation concerns (storage, routing, generation) live in their own
// packages so that core stays dependency-light and free of cycles.
package core
