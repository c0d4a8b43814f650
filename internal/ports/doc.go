// Package ports defines the outbound ports (interfaces and types) that
// decouple the REST controllers from the ledger adapters.
//
// Purpose
// -------
// Ports are the boundary between the application and the infrastructure.
// Controllers depend only on Connector and Handle; adapters implement them
// against a Fabric network (internal/adapters/outbound/fabric) or an
// in-process world state (internal/adapters/outbound/local).
//
// Files and responsibilities
// --------------------------
//   - outbound.go
//   - Target, Contract, Handle, Connector and the Disconnect helper.
//   - errors.go
//   - Infrastructure sentinel errors returned by connectors.
package ports
