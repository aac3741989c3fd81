// Package app wires the editor together: it loads the configuration, builds
// the logger, the node catalog and the save collaborator, and runs the HTTP
// server that carries socket.io and the health check. It is independent of
// the CLI so it can be driven directly from tests.
package app
