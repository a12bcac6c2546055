// Package connection provides the HTTP client tasklist-cli uses to talk to
// tasklist-server.
//
// Responses arrive in the server's JSON envelope; ParseResponse unwraps the
// data field on success and turns error envelopes into *APIError.
package connection
