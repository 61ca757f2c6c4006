// Package store provides a SQLite-backed catalog of built operation descriptors.
//
// The catalog is what a router consults at runtime: given the action string
// of an incoming request it returns the descriptor of the operation to
// dispatch to. It records:
//   - Builds: one row per contract build (UUIDv7 id, logical seq, declaration hash)
//   - Operations: the canonical JSON descriptor of every operation, keyed by
//     contract and operation name
//
// # Invariants
//
// Unique Routing
//   - UNIQUE index on operations.soap_action
//   - An action string identifies at most one operation across all contracts
//
// Atomic Contract Replacement
//   - WriteContract replaces every operation of a contract in one transaction
//   - Readers never observe a half-written contract
//
// Logical Ordering
//   - Builds are ordered by seq INTEGER, never timestamps
//   - Operations are returned in declaration order (position column)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
