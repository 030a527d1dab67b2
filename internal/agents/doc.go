// Package agents keeps local voice agent records and their remote provider
// counterparts in agreement.
//
// # Ordering
//
// Both Create and Delete call the provider before touching the local store, so
// a local row only ever describes an agent that is confirmed to exist (create)
// or confirmed to be gone (delete) at the provider. The cost is a known
// inconsistency window on second-step failure:
//
//   - Create: provider succeeds, then the local insert hits a uniqueness race.
//     The remote agent is orphaned. Logged, not reconciled.
//   - Delete: provider succeeds, then the local delete fails. The local row is
//     stale. Logged, not reconciled.
//
// Neither path retries, and no lock is held across the provider call.
//
// # Uniqueness
//
// The per-owner name pre-check in validate.go is a fast-path courtesy only.
// The store's UNIQUE(user_id, name) constraint is the sole arbiter under
// concurrent creates.
package agents
