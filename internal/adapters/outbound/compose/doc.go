// Package compose builds the outbound adapters selected by the
// configuration: the ledger connector for the configured backend and the
// document store.
package compose
