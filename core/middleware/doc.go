// Package middleware contains HTTP middleware for the management API.
//
// # Components
//
//   - auth: API key validation. Installed only when server.api_key is set.
//   - rayid: Assigns a UUID request id (RayID) to every incoming request,
//     storing it in the fiber locals and echoing it in the X-Ray-ID header.
//
// RayID must be registered first so the auth rejection is traceable too.
package middleware
