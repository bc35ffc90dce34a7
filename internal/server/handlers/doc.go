// Package handlers implements the HTTP handlers for the query API.
//
// Handlers depend on narrow interfaces rather than concrete services so they
// can be tested without a certificate store or a live distribution endpoint.
package handlers
