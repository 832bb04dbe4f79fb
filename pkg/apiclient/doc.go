// Package apiclient is the typed client for the onboarding REST API. Each
// resource has one decode function that turns the server's snake_case wire
// shapes into the canonical model types, so no other package sees wire
// details.
//
// Every request is bounded by a deadline and reads the bearer token fresh
// from the session. Nothing is retried.
package apiclient
