// Package main hosts the sermonhub CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API, channel and ingestion queue maintenance,
// emotional-state search queries, and configuration scaffolding. When the
// daemon is not running, queue and channel commands fall back to direct
// catalog access so maintenance does not require a live process. It
// centralizes configuration resolution and daemon address discovery so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
