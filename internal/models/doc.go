// Package models defines the mirrored entity types for Tripsync.
//
// # Mirrored Entities
//
// Every entity in this package is a local mirror of a record owned by the
// remote trip-planning server:
//   - Trip: a collaborative trip, the root of the entity graph
//   - Participant: a member of a trip
//   - ItineraryItem: a scheduled activity within a trip
//   - Message: a chat message within a trip
//   - Expense: a shared expense within a trip
//   - ExpenseSplit: one participant's share of an expense
//   - Document: metadata for a file attached to a trip
//
// # Sync Metadata
//
// All entities embed SyncMeta. Records are created locally first with
// IsSynced=false and gain a ServerID only after the server confirms them,
// either on push or because they were first seen during a pull.
//
// # Design Principles
//
//  1. Foreign keys always reference local ids, never server ids, so the
//     entity graph stays navigable while parents are still unsynced.
//  2. Collection-valued data (read receipts, splits) lives in child tables,
//     never in encoded string columns.
//  3. Monetary amounts are integer minor units (cents) to avoid float drift
//     when splitting.
package models
