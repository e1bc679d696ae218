// Package apiclient talks to the election server's data entry endpoints.
//
// Client implements submit.Transport. Failures are tagged with the service
// error markers so callers can tell an unreachable server from a rejected
// request or a response that could not be decoded.
package apiclient
