// Package model defines the rows persisted by the connection history recorder.
//
// Conventions:
//   - Timestamps: int64 microseconds since Unix epoch
//   - IDs: uuid.UUID, generated client-side so retried inserts are idempotent
package model
