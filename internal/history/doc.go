// Package history records connection lifecycle events to PostgreSQL.
//
// The Recorder subscribes to connection events on the Event Bus and pushes a
// row per event onto a bounded Queue without blocking the publisher. The
// Writer drains the queue in batches and inserts them with
// ON CONFLICT (id) DO NOTHING, so retried rows are never duplicated.
package history
