// Package driving provides interfaces for the application's entry points
// (primary/inbound ports). The HTTP API and the drop-folder watcher call
// services through these interfaces.
package driving
