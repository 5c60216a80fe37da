// Package endpoints registers the catalog's HTTP routes on a server.Server.
//
// Each Register* function wires one family of routes. Handlers are built by
// handle* factories that take only the stores and services they use, so they
// can be exercised directly with testify mocks.
package endpoints
