// Package httpapi is the eVAULT REST facade.
//
// Every role portal (lawyer, judge, registrar, benchclerk, stampreporter)
// gets the same route table under /api/{role}. A handler checks that the
// required fields are present, opens one ledger session for the request's
// Session, makes exactly one ledger call, closes the session and answers
// with a JSON envelope:
//
//	{"success": true, "message": "..."}   or   {"success": true, "data": ...}
//	{"success": false, "message": "..."}
//
// Missing fields answer 400 without touching the ledger. Any connector or
// ledger failure answers 500 with the downstream error text in the message.
package httpapi
