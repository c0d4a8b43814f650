// Package domain contains the domain model for the eVAULT ledger facade.
//
// This package is the core of the hexagonal layout: it defines the record
// value object, the court roles that drive the REST surface, and the domain
// errors returned by the record store. It has no dependencies outside the
// standard library.
//
// Files and types
// -----------------------
//   - record.go
//   - Record: the payload stored under an opaque record ID ({"value": ...}).
//
//   - role.go
//   - Role: the portal a request is served for (lawyer, judge, registrar,
//     benchclerk, stampreporter). Each role is bound to one organization,
//     channel and contract by configuration.
//
//   - errors.go
//   - Sentinel errors for record operations. Match with errors.Is.
package domain
