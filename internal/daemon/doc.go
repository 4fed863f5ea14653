// Package daemon hosts the long-running sermon-hub process. It enforces
// single-instance execution through a lock file, runs preflight checks
// before anything touches the catalog, supervises the workflow manager,
// and serves the HTTP API the CLI talks to.
package daemon
