// Package inmemory provides a map-backed world state for the record store.
//
// It backs the "memory" ledger backend and the package tests that need a
// ledger without a Fabric network. State is not persisted. Each namespace
// (one per channel/contract pair) gets its own State, so roles bound to
// different channels never see each other's records.
package inmemory
