// Package metrics provides build observability for apidoc.
//
// Components receive a Recorder by injection. NoopRecorder is the default and
// does nothing; PrometheusRecorder registers its collectors on a registry that
// HTTPHandler can serve. Callers never need nil checks.
package metrics
