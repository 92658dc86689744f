// Package metrics defines the build observability hooks.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no call site needs a nil check. The CLI swaps in a
// PrometheusRecorder and serve exposes its registry through HTTPHandler.
package metrics
