// Package adapters contains infrastructure implementations of the port
// interfaces in internal/ports.
//
// Adapters are organized by data flow direction:
//
//   - inbound/httpapi   - the REST facade (chi router, role controllers,
//     session middleware, optional SPIFFE mTLS server)
//   - outbound/fabric   - Fabric Gateway connector (connection profiles,
//     file-system wallet, gRPC sessions)
//   - outbound/local    - in-process connector running ledger functions
//     through internal/recordstore
//   - outbound/inmemory, outbound/badgerstate, outbound/pgstate
//     - world states behind the local connector
//   - outbound/docstore - content-addressed document storage
//   - outbound/compose  - builds the configured connector from config
//
// Dependency flow:
//
//	evault.New (composition root)
//	    ↓ compose.NewConnector(cfg)
//	ports.Connector (fabric.Connector | local.Connector)
//	    ↓ passed to
//	httpapi.NewRouter → RoleController
//
// Controllers depend only on ports.Connector and ports.Handle; they never
// import a concrete adapter.
package adapters
