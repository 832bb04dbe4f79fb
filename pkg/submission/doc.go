// Package submission packages validated answers for transport and drives the
// review lifecycle of submission records.
//
// Assemble and Review are pure: they never perform I/O. Network delivery of
// an assembled Payload belongs to the apiclient package.
package submission
