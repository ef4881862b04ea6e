// Package metrics provides observability hooks for site builds.
//
// Components receive a Recorder through their options and default to
// NoopRecorder, so metrics collection never requires nil checks at call
// sites:
//
//	gen := site.New(site.Options{Recorder: metrics.NoopRecorder{}})
//
// When metrics are wanted, swap in the Prometheus implementation:
//
//	reg := prom.NewRegistry()
//	gen := site.New(site.Options{Recorder: metrics.NewPrometheusRecorder(reg)})
//
// The registry can then be served over HTTP (HTTPHandler, used by watch
// mode) or written to a node_exporter textfile after a one-shot build
// (WriteTextfile).
package metrics
