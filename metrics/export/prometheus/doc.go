// Package prometheus renders eventgate metrics in Prometheus text
// exposition format.
//
// Mount the [PrometheusExporter.Handler] on a scrape route; each scrape
// produces a fresh snapshot from the engine. Counters are named
// eventgate_*_total and the single latency histogram is
// eventgate_exchange_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
