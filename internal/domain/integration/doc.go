// Package integration contains the Silvasoft integration bounded context.
// It describes what the sync sends to and receives from the Silvasoft
// accounting API, independent of how the HTTP calls are made.
//
// Key concepts:
//   - AccountingAPI: port for the Silvasoft REST API
//   - Payloads: products, relations, sales invoices, orders and stock updates
//   - SyncResult: per-run tally returned by every export
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
