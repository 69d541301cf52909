// Package server holds the management HTTP server configuration.
//
// The hardware isolation manager exposes its create, delete and query
// operations over a small HTTP surface. This package only defines the listener
// settings; the routes live with the isolation feature.
//
// # Configuration
//
// The Config struct defines the bind host, port and the optional API key.
// When the key is empty the auth middleware is not installed.
package server
