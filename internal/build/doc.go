// Package build runs a complete site build from a loaded configuration.
//
// A build emits every configured standalone page, then every configured
// folder and its optional index page. Each build gets a UUID; its page
// outcomes flow to the optional SQLite ledger, its timings to the metrics
// recorder, and a summary event is published when events are enabled.
// All execution paths (CLI build, watch mode, tests) route through
// BuildService.
package build
