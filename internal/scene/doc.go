// Package scene defines the contract between the orchestration engine and a
// compositing engine, plus the Session type that enforces the checkpoint
// protocol.
//
// A Session moves Closed → Mutated → Committed → Rendering → Rendered.
// Checkpoint performs save, close and reopen as one transition and holds an
// advisory lock on the checkpoint file until the render that follows it
// completes. Render is rejected in any state other than Committed, so a
// render can never observe mutations that were not written to disk.
package scene
