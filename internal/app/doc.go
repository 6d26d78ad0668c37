// Package app is the composition root. It turns a validated deployment
// configuration into a logger, a kernel backend, a run-event notifier and a
// pipeline orchestrator, and exposes the job operations on top of them,
// decoupled from any specific entrypoint like a CLI or server.
package app
